package object

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"sync"
)

// ErrStaleHandle is returned when a handle refers to a slot that has
// been freed or reused.
var ErrStaleHandle = errors.New("stale handle")

// Handle addresses an entry in a Pool. The low 32 bits are the slot
// index plus one and the high 32 bits are the slot's generation, so a
// handle kept past Remove never resolves to the slot's next occupant.
// The zero Handle is never valid.
type Handle uint64

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index+1))
}

func (h Handle) index() (uint32, bool) {
	i := uint32(h)
	return i - 1, i != 0
}

func (h Handle) gen() uint32 {
	return uint32(h >> 32)
}

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

// ParseHandle parses the decimal form produced by String.
func ParseHandle(s string) (Handle, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse handle: %w", err)
	}
	return Handle(v), nil
}

type slot[T any] struct {
	gen  uint32
	live bool
	val  T
}

// Pool is an arena of T addressed by generation-checked handles. It is
// safe for concurrent use.
type Pool[T any] struct {
	m     sync.RWMutex
	slots []slot[T]
	free  []uint32
}

// Add stores v and returns its handle.
func (p *Pool[T]) Add(v T) Handle {
	p.m.Lock()
	defer p.m.Unlock()

	var i uint32
	if n := len(p.free); n > 0 {
		i = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		i = uint32(len(p.slots))
		p.slots = append(p.slots, slot[T]{})
	}

	s := &p.slots[i]
	s.gen++
	s.live = true
	s.val = v
	return makeHandle(i, s.gen)
}

func (p *Pool[T]) lookup(h Handle) (*slot[T], bool) {
	i, ok := h.index()
	if !ok || int(i) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[i]
	if !s.live || s.gen != h.gen() {
		return nil, false
	}
	return s, true
}

// Get returns the value stored under h.
func (p *Pool[T]) Get(h Handle) (v T, err error) {
	p.m.RLock()
	defer p.m.RUnlock()

	s, ok := p.lookup(h)
	if !ok {
		return v, fmt.Errorf("get %v: %w", h, ErrStaleHandle)
	}
	return s.val, nil
}

// Remove frees the slot for h. It returns false if h was already
// stale.
func (p *Pool[T]) Remove(h Handle) bool {
	p.m.Lock()
	defer p.m.Unlock()

	s, ok := p.lookup(h)
	if !ok {
		return false
	}

	var zero T
	s.live = false
	s.val = zero
	i, _ := h.index()
	p.free = append(p.free, i)
	return true
}

func (p *Pool[T]) Len() int {
	p.m.RLock()
	defer p.m.RUnlock()

	return len(p.slots) - len(p.free)
}

// All yields a snapshot of every live entry in slot order.
func (p *Pool[T]) All() iter.Seq2[Handle, T] {
	p.m.RLock()
	type entry struct {
		h Handle
		v T
	}
	entries := make([]entry, 0, len(p.slots))
	for i, s := range p.slots {
		if s.live {
			entries = append(entries, entry{makeHandle(uint32(i), s.gen), s.val})
		}
	}
	p.m.RUnlock()

	return func(yield func(Handle, T) bool) {
		for _, e := range entries {
			if !yield(e.h, e.v) {
				return
			}
		}
	}
}
