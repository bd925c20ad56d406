// Package set provides small generic set types.
package set

import "iter"

type Set[T comparable] map[T]struct{}

func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Remove(v T) {
	delete(s, v)
}

// Ordered is a set that remembers insertion order. Iteration yields
// elements in the order that they were first added. The zero value is
// ready to use.
type Ordered[T comparable] struct {
	index map[T]int
	items []T
}

// Add inserts v at the end of the set. It returns false if v was
// already present, in which case its position is unchanged.
func (s *Ordered[T]) Add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]int)
	}
	if _, ok := s.index[v]; ok {
		return false
	}

	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

func (s *Ordered[T]) Has(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Remove deletes v, preserving the relative order of the remaining
// elements. It returns false if v was not present.
func (s *Ordered[T]) Remove(v T) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}

	delete(s.index, v)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *Ordered[T]) Len() int {
	return len(s.items)
}

// All iterates over a snapshot of the set, so the set may be modified
// during iteration.
func (s *Ordered[T]) All() iter.Seq[T] {
	items := append([]T(nil), s.items...)
	return func(yield func(T) bool) {
		for _, v := range items {
			if !yield(v) {
				return
			}
		}
	}
}

func (s *Ordered[T]) Clear() {
	clear(s.index)
	s.items = s.items[:0]
}
