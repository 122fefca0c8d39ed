// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/glaze/dispatch"
	"github.com/devblok/glaze/glx"
	"github.com/devblok/glaze/glx/gl41"
)

func init() {
	runtime.LockOSThread()
}

// Info describes the driver behind a freshly created context.
type Info struct {
	Vendor           string   `json:"vendor"`
	Renderer         string   `json:"renderer"`
	Version          string   `json:"version"`
	GLSLVersion      string   `json:"glslVersion"`
	TextureUnits     int      `json:"textureUnits"`
	VertexAttributes int      `json:"vertexAttributes"`
	Extensions       []string `json:"extensions"`
}

func main() {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)

	window, err := sdl.CreateWindow("glazeinfo",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		1, 1, sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	glContext, err := window.GLCreateContext()
	if err != nil {
		panic(err)
	}
	defer sdl.GLDeleteContext(glContext)
	if err := window.GLMakeCurrent(nil); err != nil {
		panic(err)
	}

	queue := dispatch.NewQueue()
	defer queue.Close()

	var info Info
	if err := <-queue.Submit(func() error {
		if err := window.GLMakeCurrent(glContext); err != nil {
			return err
		}
		driver, err := gl41.New()
		if err != nil {
			return err
		}
		info = describe(driver.Caps())
		return window.GLMakeCurrent(nil)
	}); err != nil {
		panic(err)
	}

	bytes, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s\n", bytes)
}

// describe reads the driver strings and limits. Runs on the context
// thread.
func describe(caps glx.Caps) Info {
	info := Info{
		Vendor:           gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:         gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:          gl.GoStr(gl.GetString(gl.VERSION)),
		GLSLVersion:      gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
		TextureUnits:     caps.MaxTextureUnits,
		VertexAttributes: caps.MaxVertexAttributes,
	}

	var count int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &count)
	for idx := uint32(0); idx < uint32(count); idx++ {
		info.Extensions = append(info.Extensions, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, idx)))
	}
	return info
}
