package main

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// overlapConn counts writes and flags any two that run concurrently,
// which the underlying websocket library forbids.
type overlapConn struct {
	active   int32
	writes   int32
	overlaps int32
}

func (o *overlapConn) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&o.active, 1) > 1 {
		atomic.AddInt32(&o.overlaps, 1)
	}
	time.Sleep(200 * time.Microsecond)
	atomic.AddInt32(&o.active, -1)
	atomic.AddInt32(&o.writes, 1)
	return nil
}

func (o *overlapConn) Close() error { return nil }

func TestSyncConnSerializesWriters(t *testing.T) {
	inner := &overlapConn{}
	conn := newSyncConn(inner)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				require.NoError(t, conn.WriteJSON(map[string]string{"type": "noise"}))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(200), atomic.LoadInt32(&inner.writes))
	assert.Zero(t, atomic.LoadInt32(&inner.overlaps))
}

// A socket can be a lobby subscriber and a room member at once, so its
// writes arrive from its own room's actor and from other rooms' lobby
// fan-out. Through syncConn those writers never collide.
func TestLobbyAndRoomWritesToOneSocketNeverCollide(t *testing.T) {
	reg := newTestRegistry()
	inner := &overlapConn{}
	conn := newSyncConn(inner)

	reg.SubscribeLobby("race", conn)
	require.NoError(t, reg.JoinRoom("room-1", "race", "u1", "u1", testSeed("u1"), conn))
	other := joinRoom(t, reg, "room-2", "u9", testSeed("u9"))

	room1, ok := reg.Room("room-1")
	require.True(t, ok)
	room2, ok := reg.Room("room-2")
	require.True(t, ok)

	// Each created notice fans out to the lobby from the posting room's
	// actor, hitting conn from two goroutines at once.
	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			room1.post(clientEvent{userID: "u1", conn: conn, msg: GameCreatedMessage{}})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			room2.post(clientEvent{userID: "u9", conn: other, msg: GameCreatedMessage{}})
		}
	}()
	wg.Wait()

	eventually(t, func() bool {
		return atomic.LoadInt32(&inner.writes) >= 2*rounds
	}, "lobby notices never fanned out")
	assert.Zero(t, atomic.LoadInt32(&inner.overlaps))
}
