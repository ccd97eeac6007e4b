package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFires(t *testing.T) {
	fired := make(chan struct{})
	h := Schedule(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.False(t, h.Live())
}

func TestCancelPreventsFire(t *testing.T) {
	var fires int32
	h := Schedule(20*time.Millisecond, func() { atomic.AddInt32(&fires, 1) })
	h.Cancel()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fires))
	assert.False(t, h.Live())
}

func TestCancelIsIdempotent(t *testing.T) {
	fired := make(chan struct{})
	h := Schedule(time.Millisecond, func() { close(fired) })
	<-fired

	// Cancelling a fired handle, twice, must be a quiet no-op.
	h.Cancel()
	h.Cancel()

	var nilHandle *Handle
	nilHandle.Cancel()
	assert.False(t, nilHandle.Live())
}

func TestSetSchedulingReplacesPriorHandle(t *testing.T) {
	s := NewSet()
	var old, replacement int32

	s.Schedule("prompt", 20*time.Millisecond, func() { atomic.AddInt32(&old, 1) })
	s.Schedule("prompt", 5*time.Millisecond, func() { atomic.AddInt32(&replacement, 1) })

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&replacement) == 1
	}, time.Second, time.Millisecond)

	// The first handle was cancelled by the re-schedule and never fires.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&old))
	assert.Equal(t, int32(1), atomic.LoadInt32(&replacement))
}

func TestSetCancel(t *testing.T) {
	s := NewSet()
	var fires int32

	s.Schedule("race", 10*time.Millisecond, func() { atomic.AddInt32(&fires, 1) })
	assert.True(t, s.Live("race"))

	s.Cancel("race")
	assert.False(t, s.Live("race"))

	// Unknown concern is a no-op.
	s.Cancel("nothing")

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fires))
}

func TestSetCancelAll(t *testing.T) {
	s := NewSet()
	var fires int32
	for _, concern := range []string{"prompt", "advance", "race"} {
		s.Schedule(concern, 10*time.Millisecond, func() { atomic.AddInt32(&fires, 1) })
	}

	s.CancelAll()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fires))
	assert.False(t, s.Live("prompt"))
	assert.False(t, s.Live("advance"))
	assert.False(t, s.Live("race"))
}
