// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package track

import (
	log "github.com/sirupsen/logrus"

	"github.com/devblok/glaze/shader"
)

// SetShader makes a program current and reconciles every binding
// table with its declarations. A variable that survives with the
// same shape keeps its binding: at the same location nothing is
// pushed, at a moved location literals and held uniform values are
// pushed again. A buffer-backed column whose attribute moved is
// released instead, no locks are taken during a swap, so that
// column reads stale values until the renderer binds it again.
// Bindings without a surviving variable are torn down. A nil
// program, or one whose resource has no handle yet, tears
// everything down and leaves the driver without a program.
func (t *Tracker) SetShader(p *shader.Program) error {
	if !t.sized {
		return ErrNotActivated
	}
	if p != nil && p.Same(t.program) {
		return nil
	}

	t.hygieneReset()

	if p == nil {
		t.teardownAll()
		if t.program != nil {
			t.funcs.UseProgram(0)
		}
		t.program = nil
		return nil
	}

	h, ok := p.Handle()
	if !ok || h == 0 {
		t.teardownAll()
		if t.program != nil {
			t.funcs.UseProgram(0)
		}
		t.program = nil
		log.Debug("program unavailable, tracker stays without a shader")
		return nil
	}

	t.funcs.UseProgram(h)

	oldAttrs := t.attrs
	oldUniforms := t.uniforms
	t.attrs = make(map[string]*attributeBinding, len(p.Attributes()))
	t.uniforms = make(map[string]*uniformBinding, len(p.Uniforms()))

	t.reconcileAttributes(oldAttrs, p)
	t.reconcileUniforms(oldUniforms, p)
	t.releaseRemaining(oldAttrs, oldUniforms)
	t.rebindUnits()

	t.program = p
	return nil
}

// Reset drops the program and every binding, releasing every lock
// the tables hold. The driver ends without a program, slots
// disabled, units and the array buffer unbound.
func (t *Tracker) Reset() error {
	return t.SetShader(nil)
}

// hygieneReset returns the driver to a clean slate between
// programs: every attribute slot disabled, every texture unit and
// the array buffer unbound. Only driver state moves, locks, share
// counts and value caches all stay.
func (t *Tracker) hygieneReset() {
	for slot := range t.enabled {
		if t.enabled[slot] {
			t.funcs.EnableAttribute(slot, false)
			t.enabled[slot] = false
		}
	}
	for unit := range t.units {
		u := &t.units[unit]
		if u.bound {
			t.funcs.BindTexture(unit, u.target, 0)
			u.bound = false
		}
	}
	if t.buffer.current != 0 {
		t.funcs.BindArrayBuffer(0)
		t.buffer.current = 0
	}
}

func (t *Tracker) reconcileAttributes(old map[string]*attributeBinding, p *shader.Program) {
	for _, v := range p.Attributes() {
		nv := p.Attribute(v.Name)
		ob, existed := old[nv.Name]
		if !existed || !ob.v.Compatible(nv) {
			t.attrs[nv.Name] = newAttributeBinding(nv)
			continue
		}
		if ob.v.Location == nv.Location {
			// same slots, the pointer and current-value registers
			// still hold, only enables moved
			ob.v = nv
			for idx := range ob.cols {
				c := &ob.cols[idx]
				if c.lock != nil && !t.enabled[c.slot] {
					t.funcs.EnableAttribute(c.slot, true)
					t.enabled[c.slot] = true
				}
			}
			t.attrs[nv.Name] = ob
			delete(old, nv.Name)
			continue
		}
		// moved slots, per-slot registers no longer line up
		nb := newAttributeBinding(nv)
		for idx := range ob.cols {
			oc := &ob.cols[idx]
			if oc.lock != nil {
				t.mgr.Unlock(oc.lock)
				oc.lock = nil
				t.releaseArrayBuffer()
				continue
			}
			if oc.literalValid {
				t.pushLiteral(nb, idx, oc.literal)
			}
		}
		t.attrs[nv.Name] = nb
		delete(old, nv.Name)
	}
}

func (t *Tracker) reconcileUniforms(old map[string]*uniformBinding, p *shader.Program) {
	for _, v := range p.Uniforms() {
		nv := p.Uniform(v.Name)
		ob, existed := old[nv.Name]
		if !existed || !ob.v.Compatible(nv) {
			t.uniforms[nv.Name] = newUniformBinding(nv)
			continue
		}
		sameLocation := ob.v.Location == nv.Location
		ob.v = nv
		t.uniforms[nv.Name] = ob
		delete(old, nv.Name)
		if sameLocation {
			continue
		}
		switch {
		case ob.v.Type.IsSampler():
			if ob.bound {
				t.funcs.Uniform(ob.v, nil, ob.ints, 1)
			} else {
				// the cached unit index described the old location
				ob.valid = false
			}
		case !ob.valid:
		case ob.v.Type.IsFloat():
			t.funcs.Uniform(ob.v, ob.floats, nil, ob.v.Count())
		case ob.v.Type.IsInt():
			t.funcs.Uniform(ob.v, nil, ob.ints, ob.v.Count())
		}
	}
}

// releaseRemaining tears down bindings no variable of the new
// program consumed. Slots and units are already settled, only locks
// and shares are left to drop.
func (t *Tracker) releaseRemaining(oldAttrs map[string]*attributeBinding, oldUniforms map[string]*uniformBinding) {
	for _, ob := range oldAttrs {
		for idx := range ob.cols {
			c := &ob.cols[idx]
			if c.lock != nil {
				t.mgr.Unlock(c.lock)
				c.lock = nil
				t.releaseArrayBuffer()
			}
		}
	}
	for _, ob := range oldUniforms {
		if ob.bound {
			t.releaseUnitShare(ob.unit)
			ob.bound = false
			ob.unit = -1
		}
	}
}

// rebindUnits restores the driver binding of every unit that kept
// its shares across the swap.
func (t *Tracker) rebindUnits() {
	for unit := range t.units {
		u := &t.units[unit]
		if u.refs <= 0 || u.bound {
			continue
		}
		t.funcs.BindTexture(unit, u.target, u.handle)
		u.bound = true
	}
}

// teardownAll releases every lock and share the tables hold. Driver
// unbinds happened in the hygiene pass, this is bookkeeping.
func (t *Tracker) teardownAll() {
	for _, b := range t.attrs {
		for idx := range b.cols {
			c := &b.cols[idx]
			if c.lock != nil {
				t.mgr.Unlock(c.lock)
				c.lock = nil
				t.releaseArrayBuffer()
			}
		}
	}
	for unit := range t.units {
		u := &t.units[unit]
		if u.refs > 0 {
			if u.lock != nil {
				t.mgr.Unlock(u.lock)
			}
			t.units[unit] = textureUnit{}
		}
	}
	t.attrs = make(map[string]*attributeBinding)
	t.uniforms = make(map[string]*uniformBinding)
}
