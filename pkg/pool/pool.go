package pool

import (
	"context"
	"sync"
)

// Group runs tasks with bounded concurrency and collects the first
// error. A zero limit means unbounded.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sem    chan struct{}

	errOnce sync.Once
	err     error
}

type Option func(*Group)

// WithLimit caps the number of tasks running at once.
func WithLimit(n int) Option {
	return func(g *Group) {
		if n > 0 {
			g.sem = make(chan struct{}, n)
		}
	}
}

// NewGroup creates a group whose tasks observe ctx. The context is
// cancelled on the first task error.
func NewGroup(ctx context.Context, opts ...Option) *Group {
	gctx, cancel := context.WithCancel(ctx)
	g := &Group{ctx: gctx, cancel: cancel}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Go schedules fn. It blocks when the concurrency limit is reached.
func (g *Group) Go(fn func(ctx context.Context) error) {
	if g.sem != nil {
		g.sem <- struct{}{}
	}
	g.wg.Add(1)
	go func() {
		defer func() {
			if g.sem != nil {
				<-g.sem
			}
			g.wg.Done()
		}()
		if err := fn(g.ctx); err != nil {
			g.errOnce.Do(func() {
				g.err = err
				g.cancel()
			})
		}
	}()
}

// Wait blocks until every scheduled task finished and returns the
// first error observed.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.cancel()
	return g.err
}
