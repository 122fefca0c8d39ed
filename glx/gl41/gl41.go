// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gl41 drives an OpenGL 4.1 core context. Each glx.Funcs
// method maps onto one state-changing call, redundancy filtering is
// the tracker's job and does not happen here. Everything in this
// package must run on the context thread.
package gl41

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/devblok/glaze/glx"
	"github.com/devblok/glaze/shader"
)

// New initialises the bindings against the current context and
// queries the driver limits. The context must already be current on
// the calling thread.
func New() (*Funcs, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl.Init(): %s", err.Error())
	}

	// The core profile keeps all attribute state in a vertex array
	// object. One is bound for the context's whole life, it is the
	// table the enable and pointer calls land in. The context frees
	// it on teardown.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	var units, attrs int32
	gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &units)
	gl.GetIntegerv(gl.MAX_VERTEX_ATTRIBS, &attrs)
	return &Funcs{
		caps: glx.Caps{
			MaxTextureUnits:     int(units),
			MaxVertexAttributes: int(attrs),
		},
	}, nil
}

// Funcs implements glx.Funcs on a live GL 4.1 context.
type Funcs struct {
	caps glx.Caps
}

// Caps implements glx.Funcs.
func (f *Funcs) Caps() glx.Caps {
	return f.caps
}

// UseProgram implements glx.Funcs.
func (f *Funcs) UseProgram(program uint32) {
	gl.UseProgram(program)
}

// BindTexture implements glx.Funcs.
func (f *Funcs) BindTexture(unit int, target glx.TextureTarget, texture uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(glTarget(target), texture)
}

// EnableAttribute implements glx.Funcs.
func (f *Funcs) EnableAttribute(slot int, enabled bool) {
	if enabled {
		gl.EnableVertexAttribArray(uint32(slot))
	} else {
		gl.DisableVertexAttribArray(uint32(slot))
	}
}

// BindArrayBuffer implements glx.Funcs.
func (f *Funcs) BindArrayBuffer(buffer uint32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
}

// AttributePointer implements glx.Funcs.
func (f *Funcs) AttributePointer(slot int, offset, stride, size int) {
	gl.VertexAttribPointer(uint32(slot), int32(size), gl.FLOAT, false, int32(stride), gl.PtrOffset(offset))
}

// AttributeLiteral implements glx.Funcs.
func (f *Funcs) AttributeLiteral(slot int, rows int, values [4]float32, unsigned bool) {
	idx := uint32(slot)
	if unsigned {
		switch rows {
		case 1:
			gl.VertexAttribI1ui(idx, uint32(values[0]))
		case 2:
			gl.VertexAttribI2ui(idx, uint32(values[0]), uint32(values[1]))
		case 3:
			gl.VertexAttribI3ui(idx, uint32(values[0]), uint32(values[1]), uint32(values[2]))
		default:
			gl.VertexAttribI4ui(idx, uint32(values[0]), uint32(values[1]), uint32(values[2]), uint32(values[3]))
		}
		return
	}
	switch rows {
	case 1:
		gl.VertexAttrib1f(idx, values[0])
	case 2:
		gl.VertexAttrib2f(idx, values[0], values[1])
	case 3:
		gl.VertexAttrib3f(idx, values[0], values[1], values[2])
	default:
		gl.VertexAttrib4f(idx, values[0], values[1], values[2], values[3])
	}
}

// Uniform implements glx.Funcs. This is the one fan-out in the
// package, the driver entry point depends on the declared type.
func (f *Funcs) Uniform(v *shader.Variable, floats []float32, ints []int32, count int) {
	loc := int32(v.Location)
	n := int32(count)
	switch v.Type {
	case shader.Float:
		gl.Uniform1fv(loc, n, &floats[0])
	case shader.Vec2:
		gl.Uniform2fv(loc, n, &floats[0])
	case shader.Vec3:
		gl.Uniform3fv(loc, n, &floats[0])
	case shader.Vec4:
		gl.Uniform4fv(loc, n, &floats[0])
	case shader.Mat2:
		gl.UniformMatrix2fv(loc, n, false, &floats[0])
	case shader.Mat3:
		gl.UniformMatrix3fv(loc, n, false, &floats[0])
	case shader.Mat4:
		gl.UniformMatrix4fv(loc, n, false, &floats[0])
	case shader.UInt:
		gl.Uniform1uiv(loc, n, (*uint32)(unsafe.Pointer(&ints[0])))
	case shader.UVec2:
		gl.Uniform2uiv(loc, n, (*uint32)(unsafe.Pointer(&ints[0])))
	case shader.UVec3:
		gl.Uniform3uiv(loc, n, (*uint32)(unsafe.Pointer(&ints[0])))
	case shader.UVec4:
		gl.Uniform4uiv(loc, n, (*uint32)(unsafe.Pointer(&ints[0])))
	case shader.Int, shader.Bool, shader.Sampler2D, shader.SamplerCube:
		gl.Uniform1iv(loc, n, &ints[0])
	case shader.IVec2, shader.BVec2:
		gl.Uniform2iv(loc, n, &ints[0])
	case shader.IVec3, shader.BVec3:
		gl.Uniform3iv(loc, n, &ints[0])
	case shader.IVec4, shader.BVec4:
		gl.Uniform4iv(loc, n, &ints[0])
	}
}

func glTarget(target glx.TextureTarget) uint32 {
	if target == glx.TextureCubeMap {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}
