// Package loop runs a program's event handling on a single goroutine
// that stays on one OS thread.
package loop

import (
	"context"
	"errors"
	"runtime"

	"deedles.dev/kms/internal/cq"
)

// Loop delivers events of type E to a handler, one at a time, in the
// order that they were posted. Events may be posted from any goroutine.
type Loop[E any] struct {
	queue  *cq.Queue[E]
	handle func(E) error
	idle   []func() error
	errs   func(error)
}

// New returns a loop that passes events to handle.
func New[E any](handle func(E) error) *Loop[E] {
	return &Loop[E]{
		queue:  cq.New[E](),
		handle: handle,
		errs:   func(error) {},
	}
}

// OnIdle registers f to run after every batch of events, once the queue
// has been drained.
func (l *Loop[E]) OnIdle(f func() error) {
	l.idle = append(l.idle, f)
}

// OnError sets the function that receives the joined errors of each
// batch. Errors do not stop the loop.
func (l *Loop[E]) OnError(f func(error)) {
	l.errs = f
}

// Post queues ev. It returns false if the loop has been stopped.
func (l *Loop[E]) Post(ev E) bool {
	return l.queue.Push(ev)
}

// Stop makes Run return. Events that have not been handled yet are
// dropped.
func (l *Loop[E]) Stop() {
	l.queue.Stop()
}

// Run handles events until ctx is canceled or Stop is called. It
// returns ctx.Err() in the first case and nil in the second. Events
// are handled on the calling goroutine. A caller that locked its OS
// thread before Run keeps that thread afterwards.
func (l *Loop[E]) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.queue.Done():
			return nil
		case batch := <-l.queue.Get():
			err := l.dispatch(batch)
			if err != nil {
				l.errs(err)
			}
		}
	}
}

func (l *Loop[E]) dispatch(batch []E) error {
	var errs []error
	for _, ev := range batch {
		err := l.handle(ev)
		if err != nil {
			errs = append(errs, err)
		}
	}

	for _, f := range l.idle {
		err := f()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
