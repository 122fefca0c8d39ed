// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package glx

import (
	log "github.com/sirupsen/logrus"

	"github.com/devblok/glaze/shader"
)

// Trace wraps a driver so that every call gets logged at debug level
// before being forwarded. Meant for chasing redundant or missing
// state changes, not for production frames.
func Trace(inner Funcs) Funcs {
	return &tracer{inner: inner}
}

type tracer struct {
	inner Funcs
}

// Caps implements Funcs.
func (t *tracer) Caps() Caps {
	return t.inner.Caps()
}

// UseProgram implements Funcs.
func (t *tracer) UseProgram(program uint32) {
	log.WithField("program", program).Debug("glx.UseProgram")
	t.inner.UseProgram(program)
}

// BindTexture implements Funcs.
func (t *tracer) BindTexture(unit int, target TextureTarget, texture uint32) {
	log.WithFields(log.Fields{
		"unit":    unit,
		"target":  target.String(),
		"texture": texture,
	}).Debug("glx.BindTexture")
	t.inner.BindTexture(unit, target, texture)
}

// EnableAttribute implements Funcs.
func (t *tracer) EnableAttribute(slot int, enabled bool) {
	log.WithFields(log.Fields{
		"slot":    slot,
		"enabled": enabled,
	}).Debug("glx.EnableAttribute")
	t.inner.EnableAttribute(slot, enabled)
}

// BindArrayBuffer implements Funcs.
func (t *tracer) BindArrayBuffer(buffer uint32) {
	log.WithField("buffer", buffer).Debug("glx.BindArrayBuffer")
	t.inner.BindArrayBuffer(buffer)
}

// AttributePointer implements Funcs.
func (t *tracer) AttributePointer(slot int, offset, stride, size int) {
	log.WithFields(log.Fields{
		"slot":   slot,
		"offset": offset,
		"stride": stride,
		"size":   size,
	}).Debug("glx.AttributePointer")
	t.inner.AttributePointer(slot, offset, stride, size)
}

// AttributeLiteral implements Funcs.
func (t *tracer) AttributeLiteral(slot int, rows int, values [4]float32, unsigned bool) {
	log.WithFields(log.Fields{
		"slot":     slot,
		"rows":     rows,
		"values":   values,
		"unsigned": unsigned,
	}).Debug("glx.AttributeLiteral")
	t.inner.AttributeLiteral(slot, rows, values, unsigned)
}

// Uniform implements Funcs.
func (t *tracer) Uniform(v *shader.Variable, floats []float32, ints []int32, count int) {
	log.WithFields(log.Fields{
		"uniform":  v.Name,
		"type":     v.Type.String(),
		"location": v.Location,
		"count":    count,
	}).Debug("glx.Uniform")
	t.inner.Uniform(v, floats, ints, count)
}
