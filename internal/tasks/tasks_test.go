package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAndJoinsTasks(t *testing.T) {
	pool := NewPool(context.Background())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		pool.Go("work", func(_ context.Context) {
			ran.Add(1)
		})
	}

	pool.Shutdown()
	assert.Equal(t, int32(5), ran.Load())
}

func TestPoolCancelsOnShutdown(t *testing.T) {
	pool := NewPool(context.Background())

	var cancelled atomic.Bool
	started := make(chan struct{})
	pool.Go("blocker", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	})

	<-started
	pool.Shutdown()
	assert.True(t, cancelled.Load())
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := NewPool(context.Background())

	pool.Go("panicker", func(_ context.Context) {
		panic("boom")
	})

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown blocked after a panicked task")
	}
}

func TestPoolInheritsParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	pool := NewPool(parent)

	done := make(chan struct{})
	pool.Go("waiter", func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not observe parent cancellation")
	}

	pool.Shutdown()
}
