package store

import "sync"

// messageBufferSize is the fan-out buffer size per subscriber.
const messageBufferSize = 1024

// topic is a broadcast endpoint for one channel name. It manages its own
// internal concurrency independent of Store.mu.
type topic struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription is a connection's receive handle on one channel. Messages
// arrive on C; a lagging receiver whose buffer fills simply misses the
// message, with no error propagated to either the publisher or the
// subscriber.
type Subscription struct {
	channel string
	c       chan []byte
}

// C returns the channel to read published messages from. Select on it
// alongside a shutdown receiver and the connection's inbound frame read.
func (s *Subscription) C() <-chan []byte { return s.c }

// Subscribe returns a new Subscription on channel, materializing the
// channel's broadcast endpoint on first use. Endpoints are never removed
// even after their last subscriber leaves — an accepted memory trade for
// a bounded channel population.
func (s *Store) Subscribe(channel string) *Subscription {
	s.mu.Lock()
	t, ok := s.topics[channel]
	if !ok {
		t = &topic{subs: make(map[*Subscription]struct{})}
		s.topics[channel] = t
	}
	s.mu.Unlock()

	sub := &Subscription{channel: channel, c: make(chan []byte, messageBufferSize)}
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()
	return sub
}

// Unsubscribe removes sub from its channel and reports the number of
// subscribers remaining on that channel afterward.
func (s *Store) Unsubscribe(sub *Subscription) int {
	s.mu.Lock()
	t, ok := s.topics[sub.channel]
	s.mu.Unlock()
	if !ok {
		return 0
	}

	t.mu.Lock()
	delete(t.subs, sub)
	remaining := len(t.subs)
	t.mu.Unlock()
	return remaining
}

// Publish sends payload to channel's subscribers and returns the
// channel's current subscriber count. Returns 0 if the channel has never
// been subscribed to. A subscriber whose buffer is full drops the message
// silently (lag) rather than blocking the publisher; it is still counted.
func (s *Store) Publish(channel string, payload []byte) uint64 {
	s.mu.Lock()
	t, ok := s.topics[channel]
	s.mu.Unlock()
	if !ok {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for sub := range t.subs {
		select {
		case sub.c <- payload:
		default:
			// Lagging receiver: buffer full, drop silently.
		}
	}
	return uint64(len(t.subs))
}
