package cq

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := New[int]()
	defer q.Stop()

	for i := range 5 {
		require.True(t, q.Push(i))
	}

	var got []int
	timeout := time.After(time.Second)
	for len(got) < 5 {
		select {
		case vals := <-q.Get():
			got = append(got, vals...)
		case <-timeout:
			t.Fatalf("timed out with %v", got)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestPushAfterStop(t *testing.T) {
	q := New[int]()
	q.Stop()
	assert.False(t, q.Push(1))
}

func TestFlush(t *testing.T) {
	errA := errors.New("a")
	var ran []int
	errs := Flush([]func() error{
		func() error { ran = append(ran, 1); return nil },
		func() error { ran = append(ran, 2); return errA },
		func() error { ran = append(ran, 3); return nil },
	})
	assert.Equal(t, []int{1, 2, 3}, ran)
	assert.Equal(t, []error{errA}, errs)
}
