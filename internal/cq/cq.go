// Package cq implements a simple unbounded concurrent queue.
package cq

import "sync"

// Flush runs every function in queue in order, collecting the errors
// that they return.
func Flush(queue []func() error) (errs []error) {
	for _, ev := range queue {
		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Queue buffers values sent to Add until they are received, in bulk,
// from Get. Sends to Add never block for longer than it takes the
// queue's goroutine to append the value.
type Queue[T any] struct {
	done  chan struct{}
	close sync.Once

	add chan T
	get chan []T
}

func New[T any]() *Queue[T] {
	q := Queue[T]{
		done: make(chan struct{}),
		add:  make(chan T),
		get:  make(chan []T),
	}
	go q.run()

	return &q
}

// Stop stops the queue. Values that have not yet been received are
// dropped.
func (q *Queue[T]) Stop() {
	q.close.Do(func() {
		close(q.done)
	})
}

// Done is closed when the queue is stopped.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}

func (q *Queue[T]) Add() chan<- T {
	return q.add
}

// Push adds v to the queue. It returns false if the queue was stopped
// before v could be added.
func (q *Queue[T]) Push(v T) bool {
	select {
	case <-q.done:
		return false
	case q.add <- v:
		return true
	}
}

func (q *Queue[T]) Get() <-chan []T {
	return q.get
}

func (q *Queue[T]) run() {
	var s []T
	var get chan []T

	for {
		select {
		case <-q.done:
			return

		case v := <-q.add:
			s = append(s, v)
			get = q.get

		case get <- s:
			s = nil
			get = nil
		}
	}
}
