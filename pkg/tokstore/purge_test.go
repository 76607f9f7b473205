package tokstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerSweepsOnTick(t *testing.T) {
	now := time.Now()
	clock := now
	s := New(10*time.Millisecond, withClock(func() time.Time { return clock }))

	_, err := s.Create(Meta{})
	require.NoError(t, err)
	clock = now.Add(20 * time.Millisecond)

	var totalRemoved int
	sched := NewScheduler(s, 5*time.Millisecond, func(removed int) { totalRemoved += removed })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	sched.Run(ctx)

	assert.Equal(t, 1, totalRemoved)
	assert.Equal(t, 0, s.Len())
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s := New(time.Hour)
	sched := NewScheduler(s, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not exit after cancel")
	}
}
