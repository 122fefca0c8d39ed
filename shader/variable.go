// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package shader

import "sync/atomic"

var generation uint64

// NextGeneration returns a process-wide unique generation number.
// Every introspection of a program takes one and stamps it onto the
// variables it yields.
func NextGeneration() uint64 {
	return atomic.AddUint64(&generation, 1)
}

// Variable is one declared attribute or uniform of a linked program.
type Variable struct {
	Name string
	Type Type

	// ArrayLen is the declared element count, 1 for plain
	// variables.
	ArrayLen int

	// Location is the uniform location or the first attribute
	// slot. Matrix attributes occupy Cols consecutive slots
	// starting here.
	Location int

	// Gen is the generation of the introspection that produced
	// this variable.
	Gen uint64
}

// Count returns the declared element count, never less than 1.
func (v *Variable) Count() int {
	if v.ArrayLen < 1 {
		return 1
	}
	return v.ArrayLen
}

// Components returns the total scalar count across all elements.
func (v *Variable) Components() int {
	return v.Type.Components() * v.Count()
}

// Same reports whether o is the same live variable: equal structure
// and equal generation. It replaces pointer identity on purpose,
// variables get copied around tables freely.
func (v *Variable) Same(o *Variable) bool {
	if v == nil || o == nil {
		return false
	}
	return v.Gen == o.Gen &&
		v.Name == o.Name &&
		v.Type == o.Type &&
		v.Count() == o.Count() &&
		v.Location == o.Location
}

// Compatible reports whether cached values for v are shaped right
// for o: same type and element count. Compatible variables from
// different generations can inherit each other's state.
func (v *Variable) Compatible(o *Variable) bool {
	if v == nil || o == nil {
		return false
	}
	return v.Type == o.Type && v.Count() == o.Count()
}
