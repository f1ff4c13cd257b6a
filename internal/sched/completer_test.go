package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleFiresExactlyOnce(t *testing.T) {
	c := New()
	defer c.Close()

	var fired atomic.Int32
	done := make(chan struct{})
	ok := c.Schedule("s1", time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})
	require.True(t, ok)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion never fired")
	}
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, int32(1), fired.Load())
	require.Equal(t, 0, c.Pending())
}

func TestScheduleRefusesDuplicateID(t *testing.T) {
	c := New()
	defer c.Close()

	require.True(t, c.Schedule("s1", time.Minute, func() {}))
	require.False(t, c.Schedule("s1", time.Millisecond, func() {}))
	require.Equal(t, 1, c.Pending())
}

func TestCancelStopsPendingCompletion(t *testing.T) {
	c := New()
	defer c.Close()

	var fired atomic.Int32
	require.True(t, c.Schedule("s1", 20*time.Millisecond, func() { fired.Add(1) }))
	require.True(t, c.Cancel("s1"))
	require.False(t, c.Cancel("s1"))

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}

func TestCloseCancelsEverything(t *testing.T) {
	c := New()

	var fired atomic.Int32
	require.True(t, c.Schedule("a", 20*time.Millisecond, func() { fired.Add(1) }))
	require.True(t, c.Schedule("b", 20*time.Millisecond, func() { fired.Add(1) }))
	c.Close()

	require.False(t, c.Schedule("c", time.Millisecond, func() { fired.Add(1) }))
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}
