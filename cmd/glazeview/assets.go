// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/glaze/glx/gl41"
	"github.com/devblok/glaze/kar"
	"github.com/devblok/glaze/model"
)

const (
	meshAsset    = "models/quad.dae"
	textureAsset = "textures/diffuse.png"

	maxTextureDim = 2048
)

// Embedded fallbacks for running without any assets on disk
var defaultShaders packr.Box

func init() {
	defaultShaders = packr.NewBox("./shaders")
}

// openAssets memory-maps the configured kar archive. An empty path or
// a broken archive leaves the built-in fallbacks in charge.
func openAssets(path string) *assets {
	a := &assets{}
	if path == "" {
		return a
	}

	at, err := mmap.Open(path)
	if err != nil {
		log.Errorf("asset archive %s: %s", path, err.Error())
		return a
	}
	archive, err := kar.Open(at)
	if err != nil {
		at.Close()
		log.Errorf("asset archive %s: %s", path, err.Error())
		return a
	}

	a.archive = archive
	a.closer = at
	return a
}

type assets struct {
	archive *kar.Archive
	closer  io.Closer
}

func (a *assets) Close() {
	if a.closer != nil {
		a.closer.Close()
	}
}

// Mesh loads the demo mesh from the archive, or hands out the
// built-in quad.
func (a *assets) Mesh() []model.Vertex {
	if a.archive != nil {
		if rd, err := a.archive.Open(meshAsset); err == nil {
			vertices, err := model.NewFromCollada(rd)
			if err == nil {
				log.Infof("mesh loaded from archive: %s", meshAsset)
				return vertices
			}
			log.Errorf("mesh %s: %s", meshAsset, err.Error())
		}
	}
	return model.Quad()
}

// Texture loads the demo texture from the archive, or draws the
// built-in checkerboard.
func (a *assets) Texture() image.Image {
	if a.archive != nil {
		if rd, err := a.archive.Open(textureAsset); err == nil {
			img, err := png.Decode(rd)
			if err == nil {
				log.Infof("texture loaded from archive: %s", textureAsset)
				return gl41.Downscale(img, maxTextureDim)
			}
			log.Errorf("texture %s: %s", textureAsset, err.Error())
		}
	}
	return checkerboard()
}

func checkerboard() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{230, 230, 230, 255}
			if (x/8+y/8)%2 == 0 {
				c = color.RGBA{60, 60, 60, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// programSource takes the first program of the shader directory,
// falling back to the embedded default pair.
func programSource(dir string) gl41.ProgramSource {
	if programs, err := gl41.LoadShaderDirectory(dir); err == nil && len(programs) > 0 {
		log.Infof("shader program loaded from %s: %s", dir, programs[0].Name)
		return programs[0]
	}

	vertex, err := defaultShaders.FindString("default.vert.glsl")
	if err != nil {
		panic(err)
	}
	fragment, err := defaultShaders.FindString("default.frag.glsl")
	if err != nil {
		panic(err)
	}
	return gl41.ProgramSource{
		Name:     "default",
		Vertex:   vertex,
		Fragment: fragment,
	}
}
