// Package tasks provides a supervised pool for detached background work.
// Tasks are tracked only long enough to be cancellable and are joined on
// shutdown.
package tasks

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Pool runs background functions under one shared cancellation context.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool whose tasks are cancelled when the parent context
// is cancelled or Shutdown is called.
func NewPool(parent context.Context) *Pool {
	ctx, cancel := context.WithCancel(parent)
	return &Pool{ctx: ctx, cancel: cancel}
}

// Go starts a tracked background task. The task must honor context
// cancellation; the pool does not preempt it.
func (p *Pool) Go(name string, fn func(ctx context.Context)) {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("task", name).Msg("Background task panicked")
			}
		}()

		fn(p.ctx)
	}()
}

// Shutdown cancels every running task and blocks until all have returned.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
