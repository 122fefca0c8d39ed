// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package track keeps the driver's binding state in sync with what
// the renderer asked for, while skipping every call the driver has
// already seen. It owns the tables behind the current shader: one
// entry per declared attribute with a record per matrix column, one
// entry per declared uniform with its last pushed values, one record
// per texture unit with a share count, and the identity of the bound
// array buffer. All methods must run on the context thread.
package track

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/glaze/glx"
	"github.com/devblok/glaze/resource"
	"github.com/devblok/glaze/shader"
)

// package errors
var (
	ErrNotActivated   = errors.New("no surface activated")
	ErrNoShader       = errors.New("no shader bound")
	ErrNoSuchVariable = errors.New("no variable with that name")
	ErrShapeMismatch  = errors.New("value shape does not match declaration")
)

// NewTracker creates a Tracker over a driver. Locks on bound
// resources go through mgr so that destruction can reach back into
// the tables.
func NewTracker(funcs glx.Funcs, mgr *resource.Manager) *Tracker {
	return &Tracker{
		funcs: funcs,
		mgr:   mgr,
	}
}

// Tracker is the stateful face of a stateless driver.
type Tracker struct {
	funcs glx.Funcs
	mgr   *resource.Manager

	caps    glx.Caps
	sized   bool
	surface *resource.Resource

	program  *shader.Program
	attrs    map[string]*attributeBinding
	uniforms map[string]*uniformBinding
	units    []textureUnit
	enabled  []bool
	buffer   bufferState
}

// BufferPointer describes one attribute column's view into a vertex
// buffer. Size is the component count per element, Offset and Stride
// are in bytes.
type BufferPointer struct {
	Buffer *resource.Resource
	Offset int
	Stride int
	Size   int
}

type attributeBinding struct {
	v    *shader.Variable
	cols []columnBinding
}

// columnBinding is the state of one attribute slot. A matrix
// attribute owns Cols consecutive ones. Either the lock or the
// literal is authoritative, never both.
type columnBinding struct {
	slot int

	lock    *resource.Lock
	pointer BufferPointer

	literal      [4]float32
	literalValid bool
}

type uniformBinding struct {
	v      *shader.Variable
	floats []float32
	ints   []int32
	valid  bool

	// sampler bindings reference a texture unit
	unit  int
	bound bool
}

// textureUnit is the state of one driver texture unit. Several
// sampler uniforms may share it, refs counts them. The driver-side
// binding exists only while bound is set, it toggles on the 0..1
// transitions of refs and across shader swaps.
type textureUnit struct {
	res    *resource.Resource
	lock   *resource.Lock
	target glx.TextureTarget
	handle uint32
	refs   int
	bound  bool
}

// bufferState mirrors the shared array buffer binding point. refs
// counts the attribute columns currently holding buffer locks, the
// unbind happens when it returns to zero.
type bufferState struct {
	current uint32
	refs    int
}

// Activate attaches the tracker to a surface. The binding tables are
// sized from the driver limits on the first activation and keep that
// size for the tracker's whole life.
func (t *Tracker) Activate(surface *resource.Resource) error {
	if !t.sized {
		t.caps = t.funcs.Caps()
		t.units = make([]textureUnit, t.caps.MaxTextureUnits)
		t.enabled = make([]bool, t.caps.MaxVertexAttributes)
		t.attrs = make(map[string]*attributeBinding)
		t.uniforms = make(map[string]*uniformBinding)
		t.sized = true
	}
	t.surface = surface
	return nil
}

// Deactivate detaches from the surface after clearing all bindings.
// The tables stay sized, a later Activate continues on them.
func (t *Tracker) Deactivate() error {
	if err := t.Reset(); err != nil {
		return err
	}
	t.surface = nil
	return nil
}

// Surface returns the currently activated surface, nil when
// deactivated.
func (t *Tracker) Surface() *resource.Resource {
	return t.surface
}

// Program returns the currently bound program, nil when unbound.
func (t *Tracker) Program() *shader.Program {
	return t.program
}

// Attributes reports the attributes the current program declares. A
// matrix attribute is one entry regardless of how many slots it
// spans.
func (t *Tracker) Attributes() []shader.Variable {
	if t.program == nil {
		return nil
	}
	return t.program.Attributes()
}

// Uniforms reports the uniforms the current program declares.
func (t *Tracker) Uniforms() []shader.Variable {
	if t.program == nil {
		return nil
	}
	return t.program.Uniforms()
}

// slotRef names the table cell a lock belongs to, so that lock
// events carry no state beyond the lock itself and can be driven
// synthetically in tests.
type slotRef struct {
	kind  slotKind
	index int
}

type slotKind int

const (
	slotAttribute slotKind = iota
	slotTexture
)

func (t *Tracker) lockHandler(ref slotRef) resource.Handler {
	return func(ev resource.Event, l *resource.Lock) bool {
		return t.handleLockEvent(ref, ev, l)
	}
}

func (t *Tracker) handleLockEvent(ref slotRef, ev resource.Event, l *resource.Lock) bool {
	if ref.kind == slotTexture {
		return t.handleUnitEvent(ref.index, ev, l)
	}
	return t.handleColumnEvent(ref.index, ev, l)
}

func (t *Tracker) handleUnitEvent(unit int, ev resource.Event, l *resource.Lock) bool {
	u := &t.units[unit]
	if u.lock != l {
		log.Panicf("lock event on texture unit %d for a lock it does not hold", unit)
	}
	switch ev {
	case resource.EventForceUnlock:
		t.clearUnit(unit)
		return true
	default:
		h, ok := l.Handle()
		if !ok || h.ID == 0 {
			t.clearUnit(unit)
			return false
		}
		u.handle = h.ID
		t.funcs.BindTexture(unit, u.target, h.ID)
		u.bound = true
		return true
	}
}

func (t *Tracker) handleColumnEvent(slot int, ev resource.Event, l *resource.Lock) bool {
	b, col := t.columnBySlot(slot)
	if b == nil || b.cols[col].lock != l {
		log.Panicf("lock event on attribute slot %d for a lock it does not hold", slot)
	}
	c := &b.cols[col]
	switch ev {
	case resource.EventForceUnlock:
		t.dropColumnLock(c)
		return true
	default:
		h, ok := l.Handle()
		if !ok || h.ID == 0 {
			t.dropColumnLock(c)
			return false
		}
		t.bindArrayBuffer(h.ID)
		t.funcs.AttributePointer(c.slot, c.pointer.Offset, c.pointer.Stride, c.pointer.Size)
		if !t.enabled[c.slot] {
			t.funcs.EnableAttribute(c.slot, true)
			t.enabled[c.slot] = true
		}
		return true
	}
}

// dropColumnLock detaches a column from its buffer after the lock
// has been invalidated elsewhere. The lock itself is the manager's
// to release.
func (t *Tracker) dropColumnLock(c *columnBinding) {
	if t.enabled[c.slot] {
		t.funcs.EnableAttribute(c.slot, false)
		t.enabled[c.slot] = false
	}
	c.lock = nil
	c.pointer = BufferPointer{}
	t.releaseArrayBuffer()
}

// clearUnit wipes a texture unit record and unpoints every sampler
// binding that referenced it. The unit's lock is the manager's to
// release.
func (t *Tracker) clearUnit(unit int) {
	u := &t.units[unit]
	if u.bound {
		t.funcs.BindTexture(unit, u.target, 0)
	}
	*u = textureUnit{}
	for _, b := range t.uniforms {
		if b.bound && b.unit == unit {
			b.bound = false
			b.unit = -1
		}
	}
}

func (t *Tracker) columnBySlot(slot int) (*attributeBinding, int) {
	for _, b := range t.attrs {
		first := b.v.Location
		if slot >= first && slot < first+len(b.cols) {
			return b, slot - first
		}
	}
	return nil, 0
}

func (t *Tracker) bindArrayBuffer(buffer uint32) {
	if t.buffer.current != buffer {
		t.funcs.BindArrayBuffer(buffer)
		t.buffer.current = buffer
	}
}

// acquireArrayBuffer registers one more column on the shared array
// buffer binding and makes the buffer current.
func (t *Tracker) acquireArrayBuffer(buffer uint32) {
	t.buffer.refs++
	t.bindArrayBuffer(buffer)
}

// releaseArrayBuffer drops one column off the shared binding. The
// driver-side unbind happens when nobody is left.
func (t *Tracker) releaseArrayBuffer() {
	t.buffer.refs--
	if t.buffer.refs <= 0 {
		t.buffer.refs = 0
		if t.buffer.current != 0 {
			t.funcs.BindArrayBuffer(0)
			t.buffer.current = 0
		}
	}
}

func newAttributeBinding(v *shader.Variable) *attributeBinding {
	cols := make([]columnBinding, v.Type.Cols())
	for idx := range cols {
		cols[idx].slot = v.Location + idx
	}
	return &attributeBinding{v: v, cols: cols}
}

func newUniformBinding(v *shader.Variable) *uniformBinding {
	b := &uniformBinding{v: v, unit: -1}
	switch {
	case v.Type.IsSampler():
		b.ints = make([]int32, 1)
	case v.Type.IsFloat():
		b.floats = make([]float32, v.Components())
	case v.Type.IsInt():
		b.ints = make([]int32, v.Components())
	}
	return b
}
