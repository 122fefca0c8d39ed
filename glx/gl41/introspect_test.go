// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl41

import (
	"testing"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/devblok/glaze/shader"
)

func TestTypeFromGL(t *testing.T) {
	cases := []struct {
		gl       uint32
		expected shader.Type
	}{
		{gl.FLOAT, shader.Float},
		{gl.FLOAT_VEC3, shader.Vec3},
		{gl.FLOAT_MAT4, shader.Mat4},
		{gl.INT_VEC2, shader.IVec2},
		{gl.UNSIGNED_INT, shader.UInt},
		{gl.BOOL_VEC4, shader.BVec4},
		{gl.SAMPLER_2D, shader.Sampler2D},
		{gl.SAMPLER_CUBE, shader.SamplerCube},
		{gl.SAMPLER_3D, shader.Unsupported},
		{gl.FLOAT_MAT2x3, shader.Unsupported},
	}
	for _, tc := range cases {
		if got := typeFromGL(tc.gl); got != tc.expected {
			t.Errorf("0x%04x: expected %s, got %s", tc.gl, tc.expected, got)
		}
	}
}

func TestCleanName(t *testing.T) {
	if cleanName([]byte("bones[0]")) != "bones" {
		t.Error("array suffix not stripped")
	}
	if cleanName([]byte("tint")) != "tint" {
		t.Error("plain name mangled")
	}
}
