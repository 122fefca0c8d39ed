// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl41_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/devblok/glaze/glx/gl41"
)

var testImage image.Image

func init() {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 256; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	testImage = img
}

func TestPixelsTightRows(t *testing.T) {
	pix := gl41.Pixels(testImage, 0)
	if len(pix) != 256*128*4 {
		t.Errorf("expected %d bytes, got %d", 256*128*4, len(pix))
	}
	// pixel (10, 3) starts at row 3, column 10
	off := 3*256*4 + 10*4
	if pix[off] != 10 || pix[off+1] != 3 || pix[off+2] != 64 || pix[off+3] != 255 {
		t.Errorf("unexpected pixel at (10,3): %v", pix[off:off+4])
	}
}

func TestPixelsPaddedRows(t *testing.T) {
	pitch := 256*4 + 64
	pix := gl41.Pixels(testImage, pitch)
	if len(pix) != pitch*128 {
		t.Errorf("expected %d bytes, got %d", pitch*128, len(pix))
	}
	off := 3*pitch + 10*4
	if pix[off] != 10 || pix[off+1] != 3 {
		t.Errorf("unexpected pixel at (10,3) with pitch %d: %v", pitch, pix[off:off+4])
	}
}

func TestPixelsIgnoresTooSmallPitch(t *testing.T) {
	pix := gl41.Pixels(testImage, 16)
	if len(pix) != 256*128*4 {
		t.Errorf("undersized pitch must keep tight rows, got %d bytes", len(pix))
	}
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	if out := gl41.Downscale(testImage, 1024); out != testImage {
		t.Error("image within the limit must come back untouched")
	}
}

func TestDownscaleClampsLongSide(t *testing.T) {
	out := gl41.Downscale(testImage, 64)
	bounds := out.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 32 {
		t.Errorf("expected 64x32, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	tall := image.NewNRGBA(image.Rect(0, 0, 10, 100))
	bounds = gl41.Downscale(tall, 50).Bounds()
	if bounds.Dy() != 50 || bounds.Dx() != 5 {
		t.Errorf("expected 5x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func BenchmarkPixelsNoRowPitch(b *testing.B) {
	for idx := 0; idx < b.N; idx++ {
		gl41.Pixels(testImage, 0)
	}
}

func BenchmarkPixelsPaddedRowPitch(b *testing.B) {
	for idx := 0; idx < b.N; idx++ {
		gl41.Pixels(testImage, 256*4+64)
	}
}

func BenchmarkDownscale(b *testing.B) {
	for idx := 0; idx < b.N; idx++ {
		gl41.Downscale(testImage, 64)
	}
}
