// Package store implements the shared in-memory keyspace: the entries
// map, the TTL expirations index, the pub/sub registry, and the
// background expirer task that evicts stale keys.
package store

import (
	"sync"
	"time"
)

// entry is the value stored at a key: opaque bytes plus an optional
// absolute expiry.
type entry struct {
	data      []byte
	expiresAt time.Time
	hasExpiry bool
}

// Store is the single logical instance shared by every connection. The
// zero Store is not usable; construct one with New.
type Store struct {
	mu           sync.Mutex
	entries      map[string]entry
	expirations  expirationSet[int64]
	topics       map[string]*topic
	shuttingDown bool

	wake chan struct{}
	wg   sync.WaitGroup
}

// New constructs a Store and starts its background expirer goroutine.
// The caller is responsible for calling Close when the store is no
// longer needed so the expirer goroutine exits.
func New() *Store {
	s := &Store{
		entries: make(map[string]entry),
		topics:  make(map[string]*topic),
		wake:    make(chan struct{}, 1),
	}
	s.wg.Add(1)
	go s.runExpirer()
	return s
}

// Get returns a clone of the value stored at key, if any. It does not
// check expiresAt against the current time — correctness depends on the
// background expirer evicting stale entries promptly; a caller may
// observe a not-yet-purged entry in the narrow window between its
// deadline and the expirer's next pass, which is tolerated by design.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.data...), true
}

// Set stores value at key, replacing anything previously there. If ttl is
// non-nil the entry expires ttl after now. Set removes the previous
// expiration (if any), inserts the new entry and its expiration (if
// any), and determines whether the background expirer needs waking —
// only when the new deadline is strictly earlier than the current
// earliest, so that N concurrent TTL-setting connections do not produce
// N wasted wakeups per interval.
func (s *Store) Set(key string, value []byte, ttl *time.Duration) {
	s.mu.Lock()

	var notify bool
	var expiresAt time.Time
	hasExpiry := ttl != nil
	if hasExpiry {
		expiresAt = time.Now().Add(*ttl)
		if min, ok := s.expirations.Min(); ok {
			notify = expiresAt.UnixNano() < min.at
		} else {
			notify = true
		}
	}

	if prev, existed := s.entries[key]; existed && prev.hasExpiry {
		s.expirations.Remove(prev.expiresAt.UnixNano(), key)
	}

	s.entries[key] = entry{
		data:      append([]byte(nil), value...),
		expiresAt: expiresAt,
		hasExpiry: hasExpiry,
	}
	if hasExpiry {
		s.expirations.Insert(expiresAt.UnixNano(), key)
	}

	s.mu.Unlock()

	if notify {
		s.wakeExpirer()
	}
}

// Close marks the store as shutting down and waits for the background
// expirer goroutine to exit. Safe to call once; calling it again would
// double-call wg.Wait, which is harmless but redundant, so callers should
// treat Close as single-shot (mirrors shutdown.Notifier.Signal in spirit,
// but Store owns its own lifecycle rather than sharing the listener's).
func (s *Store) Close() {
	s.mu.Lock()
	s.shuttingDown = true
	s.mu.Unlock()
	s.wakeExpirer()
	s.wg.Wait()
}

func (s *Store) wakeExpirer() {
	select {
	case s.wake <- struct{}{}:
	default:
		// A wakeup is already pending; coalesce it rather than block.
	}
}

// runExpirer is the background expirer task: walk expirations in
// ascending order, purge everything due, then sleep until either the
// next deadline or a wake notification, whichever comes first.
func (s *Store) runExpirer() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if s.shuttingDown {
			s.mu.Unlock()
			return
		}

		now := time.Now().UnixNano()
		for _, exp := range s.expirations.PopExpired(now) {
			delete(s.entries, exp.key)
		}

		var wait <-chan time.Time
		var timer *time.Timer
		if min, ok := s.expirations.Min(); ok {
			d := time.Duration(min.at-now) * time.Nanosecond
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
			wait = timer.C
		}
		s.mu.Unlock()

		if timer != nil {
			select {
			case <-wait:
			case <-s.wake:
			}
			timer.Stop()
		} else {
			<-s.wake
		}
	}
}
