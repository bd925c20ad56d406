package set

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrdered(t *testing.T) {
	var s Ordered[string]
	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.True(t, s.Add("c"))
	assert.False(t, s.Add("a"))
	assert.Equal(t, []string{"a", "b", "c"}, slices.Collect(s.All()))

	assert.True(t, s.Remove("b"))
	assert.False(t, s.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, slices.Collect(s.All()))
	assert.True(t, s.Has("c"))
	assert.Equal(t, 2, s.Len())

	s.Add("b")
	assert.Equal(t, []string{"a", "c", "b"}, slices.Collect(s.All()))
	assert.True(t, s.Remove("a"))
	assert.True(t, s.Has("b"))
	assert.True(t, s.Remove("b"))
	assert.Equal(t, []string{"c"}, slices.Collect(s.All()))
}

func TestOrderedModifyDuringIteration(t *testing.T) {
	var s Ordered[int]
	for i := range 4 {
		s.Add(i)
	}

	var seen []int
	for v := range s.All() {
		seen = append(seen, v)
		s.Remove(v)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
	assert.Zero(t, s.Len())
}

func TestSet(t *testing.T) {
	s := New(1, 2)
	assert.True(t, s.Has(1))
	s.Remove(1)
	assert.False(t, s.Has(1))
	s.Add(3)
	assert.True(t, s.Has(3))
}
