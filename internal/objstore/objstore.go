// Package objstore maps protocol object IDs to objects for a single
// client.
package objstore

import (
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Object is anything that can live in a Store.
type Object interface {
	ID() uint32
	SetID(id uint32)

	// Delete is called when the object is removed from the store.
	Delete()
}

type Store[T Object] struct {
	objects map[uint32]T
	nextID  uint32
}

// New returns a store that assigns IDs starting at start to objects
// that are added without one.
func New[T Object](start uint32) *Store[T] {
	return &Store[T]{
		objects: make(map[uint32]T),
		nextID:  start,
	}
}

// Add inserts obj. It is an error to add an object under an ID that is
// already in use.
func (s *Store[T]) Add(obj T) error {
	id := obj.ID()
	if id == 0 {
		for s.has(s.nextID) {
			s.nextID++
		}
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	if s.has(id) {
		return fmt.Errorf("object ID %v is already in use", id)
	}
	s.objects[id] = obj
	return nil
}

func (s *Store[T]) has(id uint32) bool {
	_, ok := s.objects[id]
	return ok
}

func (s *Store[T]) Get(id uint32) (T, bool) {
	obj, ok := s.objects[id]
	return obj, ok
}

// Delete removes the object with the given ID and calls its Delete
// method. It returns false if there was no such object.
func (s *Store[T]) Delete(id uint32) bool {
	obj, ok := s.objects[id]
	if !ok {
		return false
	}

	delete(s.objects, id)
	obj.Delete()
	return true
}

// Clear deletes every object, most recently created first.
func (s *Store[T]) Clear() {
	ids := slices.Sorted(maps.Keys(s.objects))
	for _, id := range slices.Backward(ids) {
		s.Delete(id)
	}
}

func (s *Store[T]) Len() int {
	return len(s.objects)
}

// All iterates over the objects in ID order.
func (s *Store[T]) All() iter.Seq2[uint32, T] {
	return func(yield func(uint32, T) bool) {
		for _, id := range slices.Sorted(maps.Keys(s.objects)) {
			obj, ok := s.objects[id]
			if !ok {
				continue
			}
			if !yield(id, obj) {
				return
			}
		}
	}
}
