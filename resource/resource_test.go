// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/glaze/dispatch"
	"github.com/devblok/glaze/resource"
)

func TestBuildPublishesReady(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	res := mgr.New("buffers/quad", resource.KindBuffer)
	err := <-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 7}, nil, nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Status(), qt.Equals, resource.StatusReady)

	h, ok := res.Handle()
	c.Assert(ok, qt.Equals, true)
	c.Assert(h.ID, qt.Equals, uint32(7))
}

func TestBuildRunsOnce(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	res := mgr.New("buffers/quad", resource.KindBuffer)
	build := func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 1}, nil, nil
	}
	c.Assert(<-mgr.Build(res, build), qt.IsNil)
	c.Assert(<-mgr.Build(res, build), qt.Equals, resource.ErrAlreadyBuilt)
}

func TestBuildFailure(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	broken := errors.New("compile failed")
	res := mgr.New("programs/bad", resource.KindProgram)
	err := <-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{}, nil, broken
	})
	c.Assert(err, qt.Equals, broken)
	c.Assert(res.Status(), qt.Equals, resource.StatusError)
	c.Assert(res.Err(), qt.Equals, broken)

	_, ok := res.Handle()
	c.Assert(ok, qt.Equals, false)
}

func TestLockOnUnbuiltResource(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	res := mgr.New("textures/missing", resource.KindTexture)
	l := mgr.Lock(res, nil)
	c.Assert(l, qt.Not(qt.IsNil))

	_, ok := l.Handle()
	c.Assert(ok, qt.Equals, false)

	mgr.Unlock(l)
	c.Assert(mgr.Locks(res), qt.Equals, 0)
}

func TestLockNilTolerance(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	var l *resource.Lock
	_, ok := l.Handle()
	c.Assert(ok, qt.Equals, false)

	c.Assert(mgr.Lock(nil, nil), qt.IsNil)
	mgr.Unlock(nil)
}

func TestDestroyIdempotent(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	var frees int
	res := mgr.New("buffers/quad", resource.KindBuffer)
	<-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 3}, func(resource.Handle) { frees++ }, nil
	})

	first := res.Destroy()
	second := res.Destroy()
	<-first
	<-second

	c.Assert(frees, qt.Equals, 1)
	c.Assert(res.Status(), qt.Equals, resource.StatusDisposed)
}

func TestDestroyForceUnlocksInOrder(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	var order []string
	res := mgr.New("textures/brick", resource.KindTexture)
	<-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 9}, func(resource.Handle) { order = append(order, "free") }, nil
	})

	mgr.Lock(res, func(ev resource.Event, l *resource.Lock) bool {
		if ev == resource.EventForceUnlock {
			order = append(order, "unlock-a")
		}
		return true
	})
	mgr.Lock(res, func(ev resource.Event, l *resource.Lock) bool {
		if ev == resource.EventForceUnlock {
			order = append(order, "unlock-b")
		}
		return true
	})

	<-res.Destroy()

	c.Assert(order, qt.DeepEquals, []string{"unlock-a", "unlock-b", "free"})
	c.Assert(mgr.Locks(res), qt.Equals, 0)
}

func TestDestroyForceReleasesClaim(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	var order []string
	res := mgr.New("surfaces/window", resource.KindSurface)
	<-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 1}, func(resource.Handle) { order = append(order, "free") }, nil
	})

	claim := q.NewClaim(func() error {
		order = append(order, "release")
		return nil
	})
	c.Assert(claim.Acquire(), qt.IsNil)
	res.AttachClaim(claim)

	<-res.Destroy()

	c.Assert(order, qt.DeepEquals, []string{"release", "free"})
	c.Assert(claim.Held(), qt.Equals, false)
}

func TestRebuildRelocks(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	res := mgr.New("textures/brick", resource.KindTexture)
	<-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 4}, nil, nil
	})

	var relocks int
	mgr.Lock(res, func(ev resource.Event, l *resource.Lock) bool {
		if ev == resource.EventRelock {
			relocks++
		}
		return true
	})

	err := <-mgr.Rebuild(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 5}, nil, nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(relocks, qt.Equals, 1)

	h, ok := res.Handle()
	c.Assert(ok, qt.Equals, true)
	c.Assert(h.ID, qt.Equals, uint32(5))
	c.Assert(mgr.Locks(res), qt.Equals, 1)
}

func TestRelockDropsUnusableBindings(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	res := mgr.New("textures/brick", resource.KindTexture)
	<-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 4}, nil, nil
	})

	l := mgr.Lock(res, func(ev resource.Event, lk *resource.Lock) bool {
		return ev != resource.EventRelock
	})

	err := <-mgr.Rebuild(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 5}, nil, nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(mgr.Locks(res), qt.Equals, 0)

	_, ok := l.Handle()
	c.Assert(ok, qt.Equals, false)
}

func TestRebuildActsAsInitialBuild(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	res := mgr.New("textures/brick", resource.KindTexture)
	err := <-mgr.Rebuild(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 4}, nil, nil
	})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Status(), qt.Equals, resource.StatusReady)

	err = <-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 5}, nil, nil
	})
	c.Assert(err, qt.Equals, resource.ErrAlreadyBuilt)
}

func TestRebuildAfterDestroy(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()
	mgr := resource.NewManager(q)

	res := mgr.New("buffers/quad", resource.KindBuffer)
	<-mgr.Build(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 2}, nil, nil
	})
	<-res.Destroy()

	err := <-mgr.Rebuild(res, func() (resource.Handle, func(resource.Handle), error) {
		return resource.Handle{ID: 6}, nil, nil
	})
	c.Assert(err, qt.Equals, resource.ErrDestroyed)
}

func TestPublishAfterDestroyFreesHandle(t *testing.T) {
	c := qt.New(t)
	q := dispatch.NewQueue()
	defer q.Close()

	res := resource.NewResource(q, "buffers/late", resource.KindBuffer)
	<-res.Destroy()

	var freed bool
	res.Publish(resource.Handle{ID: 8}, func(resource.Handle) { freed = true })
	c.Assert(freed, qt.Equals, true)

	_, ok := res.Handle()
	c.Assert(ok, qt.Equals, false)
}
