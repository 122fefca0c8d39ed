// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the vertex and uniform block values the demos
// push through the tracker, plus helpers to flatten them for buffer
// builds.
package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
	UV    glm.Vec2
}

// Transform defines a model-view-projection block
type Transform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// Stride is the byte distance between consecutive vertices in an
// interleaved buffer.
func Stride() int {
	return int(unsafe.Sizeof(Vertex{}))
}

// PosOffset is the byte offset of the position inside a vertex.
func PosOffset() int {
	return int(unsafe.Offsetof(Vertex{}.Pos))
}

// ColorOffset is the byte offset of the color inside a vertex.
func ColorOffset() int {
	return int(unsafe.Offsetof(Vertex{}.Color))
}

// UVOffset is the byte offset of the texture coordinates inside a vertex.
func UVOffset() int {
	return int(unsafe.Offsetof(Vertex{}.UV))
}

// Interleave flattens vertices into the layout the offsets above
// describe, ready for a buffer build.
func Interleave(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*int(unsafe.Sizeof(Vertex{})/4))
	for _, v := range vertices {
		out = append(out, v.Pos[:]...)
		out = append(out, v.Color[:]...)
		out = append(out, v.UV[:]...)
	}
	return out
}

// Quad returns the demo mesh, a unit quad of two triangles with full
// texture coverage and distinct corner colors.
func Quad() []Vertex {
	bl := Vertex{Pos: glm.Vec3{-0.5, -0.5, 0}, Color: glm.Vec4{1, 0, 0, 1}, UV: glm.Vec2{0, 1}}
	br := Vertex{Pos: glm.Vec3{0.5, -0.5, 0}, Color: glm.Vec4{0, 1, 0, 1}, UV: glm.Vec2{1, 1}}
	tr := Vertex{Pos: glm.Vec3{0.5, 0.5, 0}, Color: glm.Vec4{0, 0, 1, 1}, UV: glm.Vec2{1, 0}}
	tl := Vertex{Pos: glm.Vec3{-0.5, 0.5, 0}, Color: glm.Vec4{1, 1, 0, 1}, UV: glm.Vec2{0, 0}}
	return []Vertex{bl, br, tr, tr, tl, bl}
}
