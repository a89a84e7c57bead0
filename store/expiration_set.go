package store

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// expirationEntry is one (expiresAt, key) pair in the expirations index.
type expirationEntry[T constraints.Ordered] struct {
	at  T
	key string
}

// expirationSet is an order-preserving set of (expiresAt, key) pairs,
// ordered first by expiresAt ascending, then by key. It is generic over
// the timestamp representation (this package instantiates it with int64
// Unix-nanosecond values) so the same ordering logic is reusable if that
// representation ever changes.
//
// Backed by a sorted slice: the expected population (one entry per
// TTL-bearing key) is small enough that O(n) insert/remove is adequate,
// and it keeps Min/PopExpired trivial compared to a tree.
type expirationSet[T constraints.Ordered] struct {
	items []expirationEntry[T]
}

func less[T constraints.Ordered](a, b expirationEntry[T]) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	return a.key < b.key
}

// Insert adds (at, key) to the set, maintaining sort order.
func (s *expirationSet[T]) Insert(at T, key string) {
	e := expirationEntry[T]{at: at, key: key}
	i := sort.Search(len(s.items), func(i int) bool { return !less(s.items[i], e) })
	s.items = append(s.items, expirationEntry[T]{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = e
}

// Remove deletes the exact (at, key) pair, if present. Reports whether it
// was found.
func (s *expirationSet[T]) Remove(at T, key string) bool {
	target := expirationEntry[T]{at: at, key: key}
	i := sort.Search(len(s.items), func(i int) bool { return !less(s.items[i], target) })
	if i >= len(s.items) || s.items[i].at != at || s.items[i].key != key {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

// Min returns the earliest (expiresAt, key) pair, if any.
func (s *expirationSet[T]) Min() (expirationEntry[T], bool) {
	if len(s.items) == 0 {
		return expirationEntry[T]{}, false
	}
	return s.items[0], true
}

// PopExpired removes and returns every entry with at <= now, in ascending
// order. This is the background expirer's purge step.
func (s *expirationSet[T]) PopExpired(now T) []expirationEntry[T] {
	i := 0
	for i < len(s.items) && s.items[i].at <= now {
		i++
	}
	if i == 0 {
		return nil
	}
	expired := append([]expirationEntry[T](nil), s.items[:i]...)
	s.items = s.items[i:]
	return expired
}
