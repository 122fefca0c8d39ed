// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl41

import (
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/devblok/glaze/shader"
)

func introspectAttributes(program uint32) []shader.Variable {
	var count, maxLen int32
	gl.GetProgramiv(program, gl.ACTIVE_ATTRIBUTES, &count)
	gl.GetProgramiv(program, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLen)

	var vars []shader.Variable
	buf := make([]byte, maxLen+1)
	for idx := uint32(0); idx < uint32(count); idx++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveAttrib(program, idx, maxLen, &length, &size, &xtype, &buf[0])
		name := cleanName(buf[:length])
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		location := gl.GetAttribLocation(program, gl.Str(name+"\x00"))
		if location < 0 {
			continue
		}
		vars = append(vars, shader.Variable{
			Name:     name,
			Type:     typeFromGL(xtype),
			ArrayLen: int(size),
			Location: int(location),
		})
	}
	return vars
}

func introspectUniforms(program uint32) []shader.Variable {
	var count, maxLen int32
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(program, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)

	var vars []shader.Variable
	buf := make([]byte, maxLen+1)
	for idx := uint32(0); idx < uint32(count); idx++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(program, idx, maxLen, &length, &size, &xtype, &buf[0])
		name := cleanName(buf[:length])
		location := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
		if location < 0 {
			// block members have no location of their own
			continue
		}
		vars = append(vars, shader.Variable{
			Name:     name,
			Type:     typeFromGL(xtype),
			ArrayLen: int(size),
			Location: int(location),
		})
	}
	return vars
}

// cleanName strips the [0] the driver appends to array names.
func cleanName(raw []byte) string {
	return strings.TrimSuffix(string(raw), "[0]")
}

func typeFromGL(xtype uint32) shader.Type {
	switch xtype {
	case gl.FLOAT:
		return shader.Float
	case gl.FLOAT_VEC2:
		return shader.Vec2
	case gl.FLOAT_VEC3:
		return shader.Vec3
	case gl.FLOAT_VEC4:
		return shader.Vec4
	case gl.FLOAT_MAT2:
		return shader.Mat2
	case gl.FLOAT_MAT3:
		return shader.Mat3
	case gl.FLOAT_MAT4:
		return shader.Mat4
	case gl.INT:
		return shader.Int
	case gl.INT_VEC2:
		return shader.IVec2
	case gl.INT_VEC3:
		return shader.IVec3
	case gl.INT_VEC4:
		return shader.IVec4
	case gl.UNSIGNED_INT:
		return shader.UInt
	case gl.UNSIGNED_INT_VEC2:
		return shader.UVec2
	case gl.UNSIGNED_INT_VEC3:
		return shader.UVec3
	case gl.UNSIGNED_INT_VEC4:
		return shader.UVec4
	case gl.BOOL:
		return shader.Bool
	case gl.BOOL_VEC2:
		return shader.BVec2
	case gl.BOOL_VEC3:
		return shader.BVec3
	case gl.BOOL_VEC4:
		return shader.BVec4
	case gl.SAMPLER_2D:
		return shader.Sampler2D
	case gl.SAMPLER_CUBE:
		return shader.SamplerCube
	default:
		return shader.Unsupported
	}
}
