package main

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeConn records every frame a room or lobby broadcast writes to it.
// Frames are stored serialized, the way a real socket would see them,
// so later state mutations can't leak into assertions.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if f.fail {
		return errBrokenPipe
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.frames = append(f.frames, b)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) framesOfType(msgType string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, raw := range f.frames {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err == nil && head.Type == msgType {
			out = append(out, raw)
		}
	}
	return out
}

func countType(f *fakeConn, msgType string) int {
	return len(f.framesOfType(msgType))
}

func prompts(t *testing.T, f *fakeConn) []PromptSpawnedMessage {
	t.Helper()
	var out []PromptSpawnedMessage
	for _, raw := range f.framesOfType("prompt_spawned") {
		var m PromptSpawnedMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func answers(t *testing.T, f *fakeConn) []AnswerSubmittedMessage {
	t.Helper()
	var out []AnswerSubmittedMessage
	for _, raw := range f.framesOfType("answer_submitted") {
		var m AnswerSubmittedMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func states(t *testing.T, f *fakeConn) []StateUpdatedMessage {
	t.Helper()
	var out []StateUpdatedMessage
	for _, raw := range f.framesOfType("race_game_state_updated") {
		var m StateUpdatedMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func lastState(t *testing.T, f *fakeConn) *GameState {
	t.Helper()
	all := states(t, f)
	require.NotEmpty(t, all)
	return all[len(all)-1].Game
}

// lastStateOpt is lastState for polling conditions: nil instead of a
// test failure when no state frame has arrived yet.
func lastStateOpt(t *testing.T, f *fakeConn) *GameState {
	t.Helper()
	all := states(t, f)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1].Game
}

func statePlayer(t *testing.T, st *GameState, userID string) *Player {
	t.Helper()
	p, ok := findPlayer(st, userID)
	require.True(t, ok, "player %s missing from state", userID)
	return p
}

func timeouts(t *testing.T, f *fakeConn) []RoundTimeoutMessage {
	t.Helper()
	var out []RoundTimeoutMessage
	for _, raw := range f.framesOfType("round_timeout") {
		var m RoundTimeoutMessage
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func testPool() []Prompt {
	return []Prompt{
		{ID: "p1", Mode: PromptModeChoice, Word: "hund", Options: []string{"dog", "cat", "bird"}, Answer: "dog"},
		{ID: "p2", Mode: PromptModeChoice, Word: "katze", Options: []string{"dog", "cat", "bird"}, Answer: "cat"},
		{ID: "p3", Mode: PromptModeTyping, Word: "vogel", Answer: "bird"},
	}
}

func testSeed(userIDs ...string) *SeedPayload {
	seed := &SeedPayload{
		HostID:        userIDs[0],
		Difficulty:    DifficultyMedium,
		MaxPlayers:    4,
		RaceMode:      RaceModeDistance,
		TotalSegments: 4,
		PromptPool:    testPool(),
	}
	for _, u := range userIDs {
		seed.Players = append(seed.Players, SeedPlayer{UserID: u, Name: u})
	}
	return seed
}

func newTestRegistry() *Registry {
	RegisterRules(RaceRules{})
	return NewRegistry(nil)
}

func joinRoom(t *testing.T, reg *Registry, roomID, userID string, seed *SeedPayload) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	require.NoError(t, reg.JoinRoom(roomID, "race", userID, userID, seed, conn))
	return conn
}

func send(t *testing.T, reg *Registry, roomID, userID string, conn Conn, msg ClientMessage) {
	t.Helper()
	room, ok := reg.Room(roomID)
	require.True(t, ok, "room %s not found", roomID)
	require.True(t, room.post(clientEvent{userID: userID, conn: conn, msg: msg}))
}

// fireTimer expires a room timer immediately: it waits for the real
// handle to be armed, cancels it so it cannot fire twice, and posts
// the expiry event the callback would have posted.
func fireTimer(t *testing.T, reg *Registry, roomID, concern string) {
	t.Helper()
	room, ok := reg.Room(roomID)
	require.True(t, ok, "room %s not found", roomID)
	eventually(t, func() bool { return room.timers.Live(concern) }, "timer never armed: "+concern)
	room.timers.Cancel(concern)
	require.True(t, room.post(timerEvent{concern: concern}))
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 2*time.Millisecond, msg)
}

// startRace readies every player and waits for the first prompt.
func startRace(t *testing.T, reg *Registry, roomID string, conns map[string]*fakeConn) PromptSpawnedMessage {
	t.Helper()
	var first *fakeConn
	for userID, conn := range conns {
		if first == nil {
			first = conn
		}
		send(t, reg, roomID, userID, conn, PlayerReadyMessage{})
	}
	eventually(t, func() bool { return len(prompts(t, first)) > 0 }, "race never started")
	ps := prompts(t, first)
	return ps[len(ps)-1]
}
