// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package dispatch implements the single-threaded executor that owns the
// graphics context. Every call into the driver has to happen on one OS
// thread, so all of them are funneled through a Queue. Jobs run strictly
// in submission order, there is no reordering or batching. Waiting on a
// job is the only suspension point the rest of the engine knows about.
package dispatch

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// package errors
var (
	ErrQueueClosed = errors.New("dispatch queue is closed")
	ErrClaimHeld   = errors.New("claim is already held")
)

// NewQueue creates a Queue and starts its worker. The worker locks
// itself to an OS thread before executing anything, the thread is
// the one the graphics context must be made current on.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Queue executes submitted jobs one after another on a single
// locked OS thread.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []job
	closed bool
}

type job struct {
	fn   func() error
	done chan error
}

func (q *Queue) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for {
		q.mu.Lock()
		for len(q.jobs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			return
		}
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		j.done <- j.fn()
	}
}

// Submit enqueues fn and returns a channel that will receive the
// result once it has run. Submit never blocks and is safe to call
// from any goroutine, including jobs already running on the Queue.
func (q *Queue) Submit(fn func() error) <-chan error {
	done := make(chan error, 1)
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		done <- ErrQueueClosed
		return done
	}
	q.jobs = append(q.jobs, job{fn: fn, done: done})
	q.mu.Unlock()
	q.cond.Signal()
	return done
}

// Do submits fn and waits for it to finish. When ctx expires first
// the wait is abandoned and the ctx error returned, the job itself
// still runs in its submitted slot. Do must not be called from a
// job already running on the Queue, that would deadlock.
func (q *Queue) Do(ctx context.Context, fn func() error) error {
	done := q.Submit(fn)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the jobs submitted so far and stops the worker.
// Submissions after Close resolve with ErrQueueClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
