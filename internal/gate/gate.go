// Package gate implements a process-global binary semaphore used to
// serialize calls into an upstream that collapses under concurrent TLS
// handshakes.
package gate

import "context"

// Gate is a counting semaphore of capacity one. At most one caller may be
// inside the gated region at any instant, regardless of how many pipeline
// workers are running concurrently.
type Gate struct {
	ch chan struct{}
}

// New returns a ready-to-use Gate.
func New() *Gate {
	return &Gate{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the gate is free or ctx is done. The gate must be
// held for the entire duration of the serialized call, including its
// retries, and released on every exit path.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the gate. Callers should defer Release immediately after a
// successful Acquire.
func (g *Gate) Release() {
	select {
	case <-g.ch:
	default:
	}
}

// Do runs fn with the gate held, acquiring before and releasing after via
// defer regardless of how fn returns.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn(ctx)
}
