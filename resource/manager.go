// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/glaze/dispatch"
)

// NewManager creates a Manager whose resources build and tear down
// on q.
func NewManager(q *dispatch.Queue) *Manager {
	return &Manager{
		queue: q,
		locks: make(map[*Resource][]*Lock),
	}
}

// Manager hands out resources and the locks on them. It is the one
// place that knows every holder of every resource, which is what
// makes force-unlock on destruction possible.
type Manager struct {
	queue *dispatch.Queue

	mu    sync.Mutex
	locks map[*Resource][]*Lock
}

// New creates an empty managed Resource.
func (m *Manager) New(id string, kind Kind) *Resource {
	r := NewResource(m.queue, id, kind)
	r.mgr = m
	return r
}

// Queue returns the context queue resources are built and destroyed
// on.
func (m *Manager) Queue() *dispatch.Queue {
	return m.queue
}

// Lock takes a read claim on res and registers fn for lifecycle
// events. Locking never fails loudly: a nil or not-ready resource
// still yields a Lock, whose Handle reports not-ok. Callers check
// that, release, and fall back.
func (m *Manager) Lock(res *Resource, fn Handler) *Lock {
	if res == nil {
		return nil
	}
	l := &Lock{res: res, handler: fn}
	m.mu.Lock()
	m.locks[res] = append(m.locks[res], l)
	m.mu.Unlock()
	return l
}

// Unlock releases a lock. Safe on nil and on already-released locks.
func (m *Manager) Unlock(l *Lock) {
	if l == nil || !atomic.CompareAndSwapInt32(&l.released, 0, 1) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	held := m.locks[l.res]
	for idx, candidate := range held {
		if candidate == l {
			m.locks[l.res] = append(held[:idx], held[idx+1:]...)
			break
		}
	}
	if len(m.locks[l.res]) == 0 {
		delete(m.locks, l.res)
	}
}

// Locks reports how many locks are currently held on res.
func (m *Manager) Locks(res *Resource) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks[res])
}

// ForceUnlockAll delivers EventForceUnlock to every lock held on res,
// in the order the locks were taken, and releases them. Must run on
// the context thread, the destruction path already does.
func (m *Manager) ForceUnlockAll(res *Resource) {
	for _, l := range m.snapshot(res) {
		if atomic.LoadInt32(&l.released) == 1 {
			continue
		}
		if l.handler != nil {
			l.handler(EventForceUnlock, l)
		}
		m.Unlock(l)
	}
}

// RelockAll delivers EventRelock to every lock held on res after a
// rebuild. Handlers that report their binding unusable get released.
// Must run on the context thread.
func (m *Manager) RelockAll(res *Resource) {
	for _, l := range m.snapshot(res) {
		if atomic.LoadInt32(&l.released) == 1 {
			continue
		}
		if l.handler == nil {
			continue
		}
		if !l.handler(EventRelock, l) {
			m.Unlock(l)
		}
	}
}

func (m *Manager) snapshot(res *Resource) []*Lock {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := make([]*Lock, len(m.locks[res]))
	copy(held, m.locks[res])
	return held
}

// Build runs fn on the context thread and publishes its result onto
// res. A resource builds at most once, repeat attempts resolve with
// ErrAlreadyBuilt. fn returns the handle, the teardown for it, and
// an error that moves the resource to StatusError instead.
func (m *Manager) Build(res *Resource, fn func() (Handle, func(Handle), error)) <-chan error {
	return m.queue.Submit(func() error {
		if !atomic.CompareAndSwapInt32(&res.built, 0, 1) {
			return ErrAlreadyBuilt
		}
		return m.build(res, fn)
	})
}

// Rebuild replaces the handle of a previously built resource and
// redelivers every lock through EventRelock. It exists for the path
// where the driver already invalidated the old handle, so the old
// handle is not freed. Destroyed resources stay destroyed.
func (m *Manager) Rebuild(res *Resource, fn func() (Handle, func(Handle), error)) <-chan error {
	return m.queue.Submit(func() error {
		if atomic.LoadInt32(&res.destroyed) == 1 {
			return ErrDestroyed
		}
		if atomic.CompareAndSwapInt32(&res.built, 0, 1) {
			return m.build(res, fn)
		}
		if err := m.build(res, fn); err != nil {
			return err
		}
		m.RelockAll(res)
		return nil
	})
}

func (m *Manager) build(res *Resource, fn func() (Handle, func(Handle), error)) error {
	h, destroy, err := fn()
	if err != nil {
		log.WithField("resource", res.ID()).Debugf("build failed: %s", err)
		res.Fail(err)
		return err
	}
	res.Publish(h, destroy)
	return nil
}
