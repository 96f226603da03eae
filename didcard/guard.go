package didcard

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Guard admits one in-flight operation and rejects concurrent starts
type Guard struct {
	sem  *semaphore.Weighted
	busy atomic.Bool
}

// NewGuard creates an idle guard
func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// TryStart claims the guard or fails with ErrBusy. release must be called exactly once.
func (g *Guard) TryStart() (release func(), err error) {
	if !g.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	g.busy.Store(true)

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			g.busy.Store(false)
			g.sem.Release(1)
		}
	}, nil
}

// Busy reports whether an operation is in flight
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
