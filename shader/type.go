// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shader models linked shader programs and the variables they
// declare. Variables are identified structurally, name plus shape plus
// slot plus the generation of the introspection that produced them,
// never by pointer. Two introspections of the same driver object give
// distinct generations, which is how stale bindings from before a
// relink are told apart from live ones.
package shader

// Type is the declared type of a shader variable.
type Type int

// Shader variable types. Unsupported is the zero value and stands for
// every declared type this layer does not drive, operations on such
// variables are silently skipped.
const (
	Unsupported Type = iota
	Float
	Vec2
	Vec3
	Vec4
	Mat2
	Mat3
	Mat4
	Int
	IVec2
	IVec3
	IVec4
	UInt
	UVec2
	UVec3
	UVec4
	Bool
	BVec2
	BVec3
	BVec4
	Sampler2D
	SamplerCube
)

// Components returns the number of scalars one value of this type
// holds.
func (t Type) Components() int {
	return t.Rows() * t.Cols()
}

// Rows returns the scalar count per column. For vectors that is the
// vector size, for matrices the height of one column.
func (t Type) Rows() int {
	switch t {
	case Vec2, IVec2, UVec2, BVec2, Mat2:
		return 2
	case Vec3, IVec3, UVec3, BVec3, Mat3:
		return 3
	case Vec4, IVec4, UVec4, BVec4, Mat4:
		return 4
	default:
		return 1
	}
}

// Cols returns how many attribute slots a value of this type spans.
// Only matrices span more than one.
func (t Type) Cols() int {
	switch t {
	case Mat2:
		return 2
	case Mat3:
		return 3
	case Mat4:
		return 4
	default:
		return 1
	}
}

// IsFloat reports whether values are pushed through the float path.
func (t Type) IsFloat() bool {
	switch t {
	case Float, Vec2, Vec3, Vec4, Mat2, Mat3, Mat4:
		return true
	default:
		return false
	}
}

// IsInt reports whether values are pushed through the integer path.
// Booleans and samplers count, both travel as integers.
func (t Type) IsInt() bool {
	switch t {
	case Int, IVec2, IVec3, IVec4, UInt, UVec2, UVec3, UVec4,
		Bool, BVec2, BVec3, BVec4, Sampler2D, SamplerCube:
		return true
	default:
		return false
	}
}

// IsUnsigned reports whether the integer path is unsigned.
func (t Type) IsUnsigned() bool {
	switch t {
	case UInt, UVec2, UVec3, UVec4:
		return true
	default:
		return false
	}
}

// IsMatrix reports whether the type is a matrix.
func (t Type) IsMatrix() bool {
	return t.Cols() > 1
}

// IsSampler reports whether the type names a texture.
func (t Type) IsSampler() bool {
	return t == Sampler2D || t == SamplerCube
}

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Mat2:
		return "mat2"
	case Mat3:
		return "mat3"
	case Mat4:
		return "mat4"
	case Int:
		return "int"
	case IVec2:
		return "ivec2"
	case IVec3:
		return "ivec3"
	case IVec4:
		return "ivec4"
	case UInt:
		return "uint"
	case UVec2:
		return "uvec2"
	case UVec3:
		return "uvec3"
	case UVec4:
		return "uvec4"
	case Bool:
		return "bool"
	case BVec2:
		return "bvec2"
	case BVec3:
		return "bvec3"
	case BVec4:
		return "bvec4"
	case Sampler2D:
		return "sampler2D"
	case SamplerCube:
		return "samplerCube"
	default:
		return "unsupported"
	}
}
