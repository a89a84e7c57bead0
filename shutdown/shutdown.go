// Package shutdown implements a one-shot broadcast signal: a single
// sender closes a channel; every observer holds a Receiver that resolves
// as soon as the channel closes, and latches permanently once observed.
package shutdown

import "sync"

// Notifier is the sender side, owned by the listener. It is safe to call
// Signal from any goroutine; only the first call has an effect.
type Notifier struct {
	once sync.Once
	ch   chan struct{}
}

// New returns a Notifier with no observers yet subscribed.
func New() *Notifier {
	return &Notifier{ch: make(chan struct{})}
}

// Signal closes the underlying channel, waking every existing and future
// Receiver. Idempotent: calling it more than once is a no-op.
func (n *Notifier) Signal() {
	n.once.Do(func() { close(n.ch) })
}

// Subscribe returns a new Receiver observing this Notifier. Each connection
// handler gets its own Receiver so it can latch shutdown independently.
func (n *Notifier) Subscribe() *Receiver {
	return &Receiver{ch: n.ch}
}

// Receiver is the observer side, held by each connection handler.
type Receiver struct {
	ch      chan struct{}
	latched bool
}

// IsShutdown reports whether shutdown has already been observed. It is
// monotone: once true, it never reverts to false.
func (r *Receiver) IsShutdown() bool {
	if r.latched {
		return true
	}
	select {
	case <-r.ch:
		r.latched = true
		return true
	default:
		return false
	}
}

// Recv blocks until shutdown is signaled, then latches permanently.
// Subsequent calls return immediately. Recv itself blocks and cannot be
// a select arm; to wait for shutdown alongside a frame read or a pub/sub
// receive, select on Done instead.
func (r *Receiver) Recv() {
	<-r.ch
	r.latched = true
}

// Done returns the channel that closes when shutdown is signaled, for use
// directly inside a select statement without blocking the calling
// goroutine on Recv.
func (r *Receiver) Done() <-chan struct{} {
	return r.ch
}
