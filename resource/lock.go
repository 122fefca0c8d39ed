// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import "sync/atomic"

// Event tells a lock handler why it is being called. Handlers only
// ever run on the context thread, interleaved with but never
// concurrent to the code that took the lock.
type Event int

// Lock events.
const (
	// EventForceUnlock means the resource is about to go away. The
	// handler has to undo whatever driver state points at it and
	// acknowledge with true.
	EventForceUnlock Event = iota

	// EventRelock means the resource exists again after a rebuild.
	// The handler re-establishes its driver state and returns
	// whether the binding is still usable. Returning false drops
	// the lock.
	EventRelock
)

// Handler reacts to lock events. It gets the lock the event is for,
// so a holder managing many locks can verify it against its own
// records. Taking new locks from inside a handler is not allowed.
type Handler func(Event, *Lock) bool

// Lock is a read claim on a Resource. The zero of everything is
// handed out when locking fails, callers detect that through
// Handle's ok result rather than an error.
type Lock struct {
	res      *Resource
	handler  Handler
	released int32
}

// Resource returns the resource this lock is held on.
func (l *Lock) Resource() *Resource {
	if l == nil {
		return nil
	}
	return l.res
}

// Handle returns the locked resource's handle. ok is false when the
// lock failed, was released, or the resource is not ready. The
// holder must then release the lock and carry on unbound.
func (l *Lock) Handle() (Handle, bool) {
	if l == nil || atomic.LoadInt32(&l.released) == 1 {
		return Handle{}, false
	}
	return l.res.Handle()
}
