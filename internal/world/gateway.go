package world

import (
	"context"
	"errors"
	"log"
	"sync"
)

// ErrGatewayClosed is returned by Do after Stop has been called.
var ErrGatewayClosed = errors.New("world gateway closed")

type task struct {
	fn   func(w *World) error
	done chan error
}

// Gateway serializes all world access on one goroutine. The *World is never
// handed out directly; code can only touch it inside a Do callback, which
// runs on the gateway goroutine. That makes the single-thread-affinity rule
// a property of the API rather than a convention.
type Gateway struct {
	world *World
	tasks chan task

	mu      sync.Mutex
	closed  bool
	stopped chan struct{}
	sending sync.WaitGroup
	wg      sync.WaitGroup
}

// NewGateway creates a gateway around a fresh world. Start must be called
// before Do.
func NewGateway() *Gateway {
	return &Gateway{
		world:   NewWorld(),
		tasks:   make(chan task, 256),
		stopped: make(chan struct{}),
	}
}

// Start launches the gateway goroutine.
func (g *Gateway) Start() {
	g.wg.Add(1)
	go g.run()
}

// Stop terminates the gateway goroutine. Queued and later Do calls fail
// with ErrGatewayClosed.
func (g *Gateway) Stop() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.stopped)
	g.mu.Unlock()

	// Wait for in-flight submissions, then for the goroutine, then fail any
	// task that slipped into the buffer after the goroutine's drain. Without
	// this a caller racing Stop could block on its done channel forever.
	g.sending.Wait()
	g.wg.Wait()
	for {
		select {
		case t := <-g.tasks:
			t.done <- ErrGatewayClosed
		default:
			log.Println("world gateway: shutdown complete")
			return
		}
	}
}

func (g *Gateway) run() {
	defer g.wg.Done()
	for {
		select {
		case t := <-g.tasks:
			t.done <- t.fn(g.world)
		case <-g.stopped:
			// Drain tasks already queued so callers are not left blocked.
			for {
				select {
				case t := <-g.tasks:
					t.done <- ErrGatewayClosed
				default:
					return
				}
			}
		}
	}
}

// Do runs fn on the gateway goroutine and waits for its result. The *World
// must not escape the callback.
func (g *Gateway) Do(ctx context.Context, fn func(w *World) error) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGatewayClosed
	}
	g.sending.Add(1)
	g.mu.Unlock()

	t := task{fn: fn, done: make(chan error, 1)}

	select {
	case g.tasks <- t:
		g.sending.Done()
	case <-g.stopped:
		g.sending.Done()
		return ErrGatewayClosed
	case <-ctx.Done():
		g.sending.Done()
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
