// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource tracks the lifecycle of driver-side objects. A
// Resource starts empty, gets a Handle published onto it once built,
// and can be destroyed exactly once from any goroutine. Readers take
// locks through a Manager instead of holding handles directly, which
// is what lets the engine yank a resource out from under a renderer
// without stopping it.
package resource

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/devblok/glaze/dispatch"
)

// package errors
var (
	ErrAlreadyBuilt = errors.New("resource has already been built")
	ErrDestroyed    = errors.New("resource has been destroyed")
)

// Status describes the usability of a Resource.
type Status int32

// Resource statuses. The zero value doubles as the state before a
// build and after destruction, in both cases the handle must not
// be used.
const (
	StatusDisposed Status = iota
	StatusReady
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "disposed"
	}
}

// Kind identifies what driver object a Resource stands for.
type Kind int

// Resource kinds.
const (
	KindBuffer Kind = iota
	KindTexture
	KindProgram
	KindSurface
)

// Handle carries either a driver object name or raw in-memory data
// for resources that never made it to the driver. Exactly one of the
// two is set.
type Handle struct {
	ID   uint32
	Data []byte
}

// IsZero reports whether the handle carries nothing.
func (h Handle) IsZero() bool {
	return h.ID == 0 && h.Data == nil
}

// NewResource creates an empty Resource whose teardown will run on q.
// Resources made through a Manager additionally get their locks
// force-released on destruction, prefer Manager.New.
func NewResource(q *dispatch.Queue, id string, kind Kind) *Resource {
	return &Resource{
		queue: q,
		id:    id,
		kind:  kind,
		done:  make(chan struct{}),
	}
}

// Resource is a single driver-side object with an identity that
// outlives its handle.
type Resource struct {
	queue *dispatch.Queue
	mgr   *Manager
	id    string
	kind  Kind

	status    int32
	destroyed int32
	built     int32

	mu      sync.RWMutex
	handle  Handle
	destroy func(Handle)
	err     error
	claim   *dispatch.Claim

	done chan struct{}
}

// ID returns the resource identity.
func (r *Resource) ID() string {
	return r.id
}

// Kind returns what driver object the resource stands for.
func (r *Resource) Kind() Kind {
	return r.kind
}

// Status returns the current status.
func (r *Resource) Status() Status {
	return Status(atomic.LoadInt32(&r.status))
}

// Err returns the build error for resources in StatusError.
func (r *Resource) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Handle returns the published handle. ok is false whenever the
// resource is not ready, callers must then fall back to their
// unbound state instead of using the handle.
func (r *Resource) Handle() (Handle, bool) {
	if r.Status() != StatusReady {
		return Handle{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handle, true
}

// Publish attaches a handle and its teardown and marks the resource
// ready. Publishing onto a resource that was destroyed in the
// meantime frees the handle immediately instead.
func (r *Resource) Publish(h Handle, destroy func(Handle)) {
	if atomic.LoadInt32(&r.destroyed) == 1 {
		if destroy != nil {
			destroy(h)
		}
		return
	}
	r.mu.Lock()
	r.handle = h
	r.destroy = destroy
	r.err = nil
	r.mu.Unlock()
	atomic.StoreInt32(&r.status, int32(StatusReady))
}

// Fail marks the resource as errored.
func (r *Resource) Fail(err error) {
	if atomic.LoadInt32(&r.destroyed) == 1 {
		return
	}
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	atomic.StoreInt32(&r.status, int32(StatusError))
}

// AttachClaim ties a context claim to the resource. Destroy
// force-releases the claim before any teardown runs.
func (r *Resource) AttachClaim(c *dispatch.Claim) {
	r.mu.Lock()
	r.claim = c
	r.mu.Unlock()
}

// Destroyed returns the channel shared by all Destroy callers. It
// resolves once teardown has finished on the context thread.
func (r *Resource) Destroyed() <-chan struct{} {
	return r.done
}

// Destroy tears the resource down. It can be called from any
// goroutine and any number of times, every caller gets the same
// completion channel. The first call wins: the resource immediately
// stops accepting locks, an attached context claim is force-released,
// then all existing locks are force-unlocked and the handle freed on
// the context thread.
func (r *Resource) Destroy() <-chan struct{} {
	if !atomic.CompareAndSwapInt32(&r.destroyed, 0, 1) {
		return r.done
	}
	atomic.StoreInt32(&r.status, int32(StatusDisposed))

	r.mu.RLock()
	claim := r.claim
	r.mu.RUnlock()
	if claim != nil {
		claim.ForceRelease()
	}

	r.queue.Submit(func() error {
		if r.mgr != nil {
			r.mgr.ForceUnlockAll(r)
		}
		r.mu.Lock()
		h, destroy := r.handle, r.destroy
		r.handle = Handle{}
		r.destroy = nil
		r.mu.Unlock()
		if destroy != nil {
			destroy(h)
		}
		close(r.done)
		return nil
	})
	return r.done
}
