package shm

import (
	"testing"

	"deedles.dev/kms/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T, size int, fill byte) *Pool {
	t.Helper()

	file, err := Create("test-pool", int64(size))
	require.NoError(t, err)
	data := make([]byte, size)
	for i := range data {
		data[i] = fill
	}
	_, err = file.WriteAt(data, 0)
	require.NoError(t, err)

	pool, err := NewPool(file, size)
	require.NoError(t, err)
	return pool
}

func TestPoolBuffer(t *testing.T) {
	pool := newPool(t, 4*4*4, 0xAB)
	defer pool.Unref()

	buf, err := buffer.NewShared(pool, 16, 2, 2, 16, buffer.ARGB8888)
	require.NoError(t, err)

	dst := buffer.NewRaw(2, 2, buffer.ARGB8888)
	buffer.Copy(dst, buf)
	for _, b := range dst.Data() {
		assert.Equal(t, byte(0xAB), b)
	}
}

func TestPoolBufferOutOfRange(t *testing.T) {
	pool := newPool(t, 64, 0)
	defer pool.Unref()

	_, err := buffer.NewShared(pool, 32, 4, 4, 16, buffer.ARGB8888)
	assert.Error(t, err)
}

func TestPoolResize(t *testing.T) {
	pool := newPool(t, 64, 1)
	defer pool.Unref()

	assert.Error(t, pool.Resize(32))
	require.NoError(t, pool.File().Truncate(128))
	require.NoError(t, pool.Resize(128))
	assert.Equal(t, 128, pool.Size())
}

func TestNewPoolRejectsEmpty(t *testing.T) {
	file, err := Create("empty", 0)
	require.NoError(t, err)
	_, err = NewPool(file, 0)
	assert.Error(t, err)
}
