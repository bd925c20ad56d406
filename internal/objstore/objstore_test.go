package objstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type obj struct {
	id      uint32
	deleted *[]uint32
}

func (o *obj) ID() uint32      { return o.id }
func (o *obj) SetID(id uint32) { o.id = id }
func (o *obj) Delete()         { *o.deleted = append(*o.deleted, o.id) }

func TestStore(t *testing.T) {
	var deleted []uint32
	s := New[*obj](0xFF000000)

	require.NoError(t, s.Add(&obj{id: 1, deleted: &deleted}))
	require.NoError(t, s.Add(&obj{id: 5, deleted: &deleted}))
	assert.Error(t, s.Add(&obj{id: 5, deleted: &deleted}), "IDs are unique")

	server := &obj{deleted: &deleted}
	require.NoError(t, s.Add(server))
	assert.Equal(t, uint32(0xFF000000), server.ID())
	assert.Equal(t, 3, s.Len())

	got, ok := s.Get(5)
	require.True(t, ok)
	assert.Equal(t, uint32(5), got.ID())
	_, ok = s.Get(2)
	assert.False(t, ok)

	var ids []uint32
	for id := range s.All() {
		ids = append(ids, id)
	}
	assert.Equal(t, []uint32{1, 5, 0xFF000000}, ids)

	assert.True(t, s.Delete(5))
	assert.False(t, s.Delete(5))
	assert.Equal(t, []uint32{5}, deleted)

	s.Clear()
	assert.Equal(t, []uint32{5, 0xFF000000, 1}, deleted)
	assert.Zero(t, s.Len())
}
