package object

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baseType    = NewType("base", nil)
	derivedType = NewType("derived", baseType)
)

type base struct {
	Object
	deinits *[]string
}

func (b *base) Deinit() {
	*b.deinits = append(*b.deinits, "base")
}

func (b *base) Hash() uint64 { return 7 }

type derived struct {
	base
	id int
}

func (d *derived) Deinit() {
	*d.deinits = append(*d.deinits, "derived")
	d.base.Deinit()
}

func (d *derived) Cmp(other any) int {
	o, ok := other.(*derived)
	if !ok {
		return 1
	}
	return d.id - o.id
}

func TestInit(t *testing.T) {
	var o Object
	o.Init(nil, &o)
	assert.Equal(t, int32(1), o.Refs())
	assert.Equal(t, Root, o.Type())
	assert.True(t, o.Unref())
}

func TestNew(t *testing.T) {
	d := New[derived](derivedType)
	require.NotNil(t, d)
	assert.Equal(t, int32(1), d.Refs())
	assert.Equal(t, derivedType, d.Type())
	assert.True(t, d.Type().Is(baseType))
	assert.True(t, d.Type().Is(Root))
	assert.False(t, baseType.Is(derivedType))
}

func TestUnrefRunsDeinitChain(t *testing.T) {
	var calls []string
	d := &derived{id: 1}
	d.deinits = &calls
	d.Init(derivedType, d)

	d.Ref()
	assert.False(t, d.Unref())
	assert.Empty(t, calls)
	assert.True(t, d.Unref())
	assert.Equal(t, []string{"derived", "base"}, calls)

	assert.Panics(t, func() { d.Unref() })
}

func TestDispatchDefaults(t *testing.T) {
	var calls []string
	d := &derived{id: 2}
	d.deinits = &calls
	d.Init(derivedType, d)
	e := &derived{id: 5}

	assert.Equal(t, uint64(7), Hash(d), "hash is inherited from base")
	assert.Negative(t, Cmp(d, e))
	assert.Zero(t, UUID(d), "no uuid anywhere in the chain")

	var o Object
	assert.Zero(t, Hash(&o))
	assert.Zero(t, Cmp(&o, d))
}

func TestConcurrentRefs(t *testing.T) {
	var o Object
	o.Init(nil, &o)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Ref()
			o.Unref()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), o.Refs())
}

func TestWriteReleasesOnError(t *testing.T) {
	var o Object
	o.Init(nil, &o)

	err := o.Write(func() error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, o.TryLock(), "write lock was released")
	o.Unlock()
}

func TestTypeTables(t *testing.T) {
	parent := NewType("parent", nil)
	parent.Attributes = []Attribute{{Name: "visible", Kind: Bool}}
	parent.Functions = []Function{{Name: "ping", Call: func([]Value) int { return 0 }}}
	child := NewType("child", parent)
	child.Attributes = []Attribute{{Name: "z", Kind: Int}}

	a, ok := child.Attribute("visible")
	require.True(t, ok)
	assert.Equal(t, Bool, a.Kind)
	_, ok = child.Attribute("z")
	assert.True(t, ok)
	_, ok = parent.Attribute("z")
	assert.False(t, ok)
	_, ok = child.Function("ping")
	assert.True(t, ok)
	_, ok = child.Function("pong")
	assert.False(t, ok)
}
