// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package glx is the call surface between the binding tracker and a
// concrete driver. It is deliberately tiny: single state-changing
// calls, no batching, no cleverness. Everything behind it must only
// ever be touched from the context thread.
package glx

import "github.com/devblok/glaze/shader"

// Caps are the driver limits the tracker sizes its tables from. They
// are queried once per context and never change afterwards.
type Caps struct {
	MaxTextureUnits     int
	MaxVertexAttributes int
}

// TextureTarget selects the texture binding point of a unit.
type TextureTarget int

// Texture targets.
const (
	Texture2D TextureTarget = iota
	TextureCubeMap
)

// String implements fmt.Stringer.
func (t TextureTarget) String() string {
	if t == TextureCubeMap {
		return "cubeMap"
	}
	return "2d"
}

// Funcs is the set of driver calls the tracker emits. Implementations
// translate each method into exactly one driver state change, the
// tracker already made sure redundant calls do not get here.
type Funcs interface {

	// Caps returns the driver limits.
	Caps() Caps

	// UseProgram makes the program current, 0 unbinds.
	UseProgram(program uint32)

	// BindTexture binds a texture to a unit, 0 unbinds the unit.
	BindTexture(unit int, target TextureTarget, texture uint32)

	// EnableAttribute switches one attribute slot between array
	// and literal sourcing.
	EnableAttribute(slot int, enabled bool)

	// BindArrayBuffer makes a buffer current for subsequent
	// pointer setup, 0 unbinds.
	BindArrayBuffer(buffer uint32)

	// AttributePointer points an enabled slot into the currently
	// bound array buffer. size is the component count per element,
	// offset and stride are in bytes.
	AttributePointer(slot int, offset, stride, size int)

	// AttributeLiteral sets the constant value sourced by a
	// disabled slot. rows tells how many of the four components
	// are meaningful, unsigned selects the integer flavor.
	AttributeLiteral(slot int, rows int, values [4]float32, unsigned bool)

	// Uniform pushes count elements of a uniform. Exactly one of
	// floats and ints is non-nil, matching the variable's type
	// class.
	Uniform(v *shader.Variable, floats []float32, ints []int32, count int)
}
