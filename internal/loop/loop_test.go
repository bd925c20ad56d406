package loop

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestLoopOrder(t *testing.T) {
	var got []int
	done := make(chan struct{})
	l := New(func(v int) error {
		got = append(got, v)
		if v == 99 {
			close(done)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	var want []int
	for i := range 100 {
		require.True(t, l.Post(i))
		want = append(want, i)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("events were not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, want, got)
}

func TestLoopErrors(t *testing.T) {
	errA := errors.New("a")
	errIdle := errors.New("idle")

	var m sync.Mutex
	var reported []error
	l := New(func(v string) error {
		if v == "fail" {
			return errA
		}
		return nil
	})

	idle := make(chan struct{}, 10)
	l.OnIdle(func() error {
		idle <- struct{}{}
		return errIdle
	})
	l.OnError(func(err error) {
		m.Lock()
		defer m.Unlock()
		reported = append(reported, err)
	})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background()) }()

	require.True(t, l.Post("fail"))
	select {
	case <-idle:
	case <-time.After(5 * time.Second):
		t.Fatal("idle function did not run")
	}

	l.Stop()
	assert.NoError(t, <-errc)
	assert.False(t, l.Post("late"), "posting to a stopped loop fails")

	m.Lock()
	defer m.Unlock()
	require.NotEmpty(t, reported)
	assert.ErrorIs(t, reported[0], errA)
	assert.ErrorIs(t, reported[0], errIdle)
}

func TestLoopKeepsCallerThread(t *testing.T) {
	tids := make(chan int, 2)
	l := New(func(tid int) error {
		tids <- tid
		tids <- unix.Gettid()
		return nil
	})

	errc := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		l.Post(unix.Gettid())
		errc <- l.Run(context.Background())
	}()

	var before, during int
	select {
	case before = <-tids:
		during = <-tids
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
	l.Stop()
	assert.NoError(t, <-errc)
	assert.Equal(t, before, during, "setup done before Run shares the thread that handles events")
}
