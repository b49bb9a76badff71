package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnce_ContinuesAfterFailure(t *testing.T) {
	var order []string
	s := New(time.Minute, nil)
	s.Add(Job{Name: "a", Fn: func(context.Context) error { order = append(order, "a"); return errors.New("boom") }})
	s.Add(Job{Name: "b", Fn: func(context.Context) error { order = append(order, "b"); return nil }})

	err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "a: boom")
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRunOnce_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	s := New(time.Minute, nil)
	s.Add(Job{Name: "a", Fn: func(context.Context) error { called = true; return nil }})
	assert.ErrorIs(t, s.RunOnce(ctx), context.Canceled)
	assert.False(t, called)
}

func TestStart_RunsUntilStopped(t *testing.T) {
	var runs atomic.Int32
	s := New(10*time.Millisecond, nil)
	s.Add(Job{Name: "tick", Fn: func(context.Context) error { runs.Add(1); return nil }})

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStart_SkipsOverlappingRounds(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	s := New(5*time.Millisecond, nil)
	s.Add(Job{Name: "slow", Fn: func(ctx context.Context) error {
		runs.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	close(release)
	cancel()
	<-done
}

func TestStart_InvalidInterval(t *testing.T) {
	assert.Error(t, New(0, nil).Start(context.Background()))
}
