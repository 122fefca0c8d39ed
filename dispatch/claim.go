// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package dispatch

import "sync/atomic"

// NewClaim creates a Claim on this Queue. The release hook runs on
// the Queue whenever the claim is given up, it is where the context
// gets detached from whatever held it.
func (q *Queue) NewClaim(release func() error) *Claim {
	return &Claim{queue: q, release: release}
}

// Claim records ownership of the context by a single holder, usually
// the rendering surface. Destruction paths force-release the claim
// before tearing the holder down, otherwise a destroy arriving while
// the context is held would wait on itself.
type Claim struct {
	queue   *Queue
	release func() error
	held    int32
}

// Acquire marks the claim as held. Returns ErrClaimHeld when it
// already is.
func (c *Claim) Acquire() error {
	if !atomic.CompareAndSwapInt32(&c.held, 0, 1) {
		return ErrClaimHeld
	}
	return nil
}

// Held reports whether the claim is currently held.
func (c *Claim) Held() bool {
	return atomic.LoadInt32(&c.held) == 1
}

// Release gives the claim up and schedules the release hook on the
// Queue. The returned channel resolves with the hook's result. A
// claim that is not held resolves immediately.
func (c *Claim) Release() <-chan error {
	if !atomic.CompareAndSwapInt32(&c.held, 1, 0) {
		done := make(chan error, 1)
		done <- nil
		return done
	}
	if c.release == nil {
		done := make(chan error, 1)
		done <- nil
		return done
	}
	return c.queue.Submit(c.release)
}

// ForceRelease is Release for destruction paths. It is idempotent
// and never waits, the hook lands on the Queue ahead of any teardown
// submitted after it.
func (c *Claim) ForceRelease() {
	if !atomic.CompareAndSwapInt32(&c.held, 1, 0) {
		return
	}
	if c.release != nil {
		c.queue.Submit(c.release)
	}
}
