// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl41

import (
	"fmt"
	"image"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/devblok/glaze/shader"
)

// BuildProgram compiles both stages, links them and introspects the
// result. The returned variable slices are ready to be wrapped into
// a shader.Program.
func BuildProgram(vertexSrc, fragmentSrc string) (uint32, []shader.Variable, []shader.Variable, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, nil, nil, fmt.Errorf("fragment: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(infoLog))
		gl.DeleteProgram(program)
		return 0, nil, nil, fmt.Errorf("gl.LinkProgram(): %s", strings.TrimRight(infoLog, "\x00"))
	}

	attributes := introspectAttributes(program)
	uniforms := introspectUniforms(program)
	return program, attributes, uniforms, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	handle := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(handle, 1, csrc, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLen)
		infoLog := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(handle, logLen, nil, gl.Str(infoLog))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("gl.CompileShader(): %s", strings.TrimRight(infoLog, "\x00"))
	}
	return handle, nil
}

// DeleteProgram frees a linked program.
func DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

// BuildBuffer uploads vertex data into a fresh array buffer. The
// binding point is restored afterwards, the tracker's mirror of it
// must not learn that a build happened.
func BuildBuffer(data []float32) (uint32, error) {
	var prev int32
	gl.GetIntegerv(gl.ARRAY_BUFFER_BINDING, &prev)

	var buffer uint32
	gl.GenBuffers(1, &buffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, buffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(prev))
	if errno := gl.GetError(); errno != gl.NO_ERROR {
		gl.DeleteBuffers(1, &buffer)
		return 0, fmt.Errorf("gl.BufferData(): 0x%04x", errno)
	}
	return buffer, nil
}

// DeleteBuffer frees a buffer.
func DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

// BuildTexture uploads an image as a 2D texture. Images above the
// driver's size limit get downscaled first instead of failing. The
// upload borrows texture unit 0 and restores its binding afterwards.
func BuildTexture(img image.Image) (uint32, error) {
	var maxSize int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	img = Downscale(img, int(maxSize))

	bounds := img.Bounds()
	pixels := Pixels(img, 0)

	gl.ActiveTexture(gl.TEXTURE0)
	var prev int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &prev)

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(bounds.Dx()), int32(bounds.Dy()),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, uint32(prev))
	if errno := gl.GetError(); errno != gl.NO_ERROR {
		gl.DeleteTextures(1, &texture)
		return 0, fmt.Errorf("gl.TexImage2D(): 0x%04x", errno)
	}
	return texture, nil
}

// DeleteTexture frees a texture.
func DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}
