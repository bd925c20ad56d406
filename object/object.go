// Package object provides the base that every compositor entity is
// built on: a type descriptor with a supertype chain, an atomic
// reference count, and a reader/writer lock.
//
// Overridable behavior is expressed with small interfaces (Hasher,
// Comparer, UUIDer, Deiniter). A derived type that embeds a base type
// inherits the base's methods through promotion and overrides them by
// defining its own, so resolution follows the embedding chain. A value
// that implements none of them gets the zero default.
package object

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Object is embedded by every entity. It must be initialized with Init
// or allocated with New before use.
type Object struct {
	sync.RWMutex

	typ  *Type
	self any
	refs atomic.Int32
}

// Init prepares o for use with a reference count of one. self is the
// most-derived value that embeds o and is what Deinit is dispatched on
// when the last reference is dropped. Init never allocates.
func (o *Object) Init(typ *Type, self any) {
	if typ == nil {
		typ = Root
	}
	o.typ = typ
	o.self = self
	o.refs.Store(1)
}

func (o *Object) object() *Object { return o }

// Type returns the descriptor that o was initialized with.
func (o *Object) Type() *Type {
	return o.typ
}

// Ref adds a reference.
func (o *Object) Ref() {
	if o.refs.Add(1) <= 1 {
		panic(fmt.Sprintf("object: Ref of released %v", o.typ))
	}
}

// Unref drops a reference. When the count reaches zero, the
// most-derived Deinit runs and Unref returns true.
func (o *Object) Unref() bool {
	n := o.refs.Add(-1)
	switch {
	case n > 0:
		return false
	case n < 0:
		panic(fmt.Sprintf("object: Unref of released %v", o.typ))
	}

	if d, ok := o.self.(Deiniter); ok {
		d.Deinit()
	}
	return true
}

// Refs returns the current reference count.
func (o *Object) Refs() int32 {
	return o.refs.Load()
}

// Read runs f with the read lock held.
func (o *Object) Read(f func()) {
	o.RLock()
	defer o.RUnlock()
	f()
}

// Write runs f with the write lock held and returns its error.
func (o *Object) Write(f func() error) error {
	o.Lock()
	defer o.Unlock()
	return f()
}

// Embedder is implemented by every type that embeds an Object.
type Embedder interface {
	object() *Object
}

// New allocates a T and initializes its embedded Object. T is required
// to embed Object, so the storage is always at least the size of the
// base.
func New[T any, P interface {
	*T
	Embedder
}](typ *Type) P {
	p := P(new(T))
	p.object().Init(typ, p)
	return p
}

// Hasher overrides the default hash of zero.
type Hasher interface {
	Hash() uint64
}

// Comparer overrides the default comparison, which reports all
// objects as equal. Cmp returns a negative number, zero, or a positive
// number.
type Comparer interface {
	Cmp(other any) int
}

// UUIDer overrides the default uuid of zero.
type UUIDer interface {
	UUID() uint64
}

// Deiniter is called when the last reference to an object is dropped.
// Implementations that embed another Deiniter must call it explicitly.
type Deiniter interface {
	Deinit()
}

func Hash(v any) uint64 {
	if h, ok := v.(Hasher); ok {
		return h.Hash()
	}
	return 0
}

func Cmp(a, b any) int {
	if c, ok := a.(Comparer); ok {
		return c.Cmp(b)
	}
	return 0
}

func UUID(v any) uint64 {
	if u, ok := v.(UUIDer); ok {
		return u.UUID()
	}
	return 0
}
