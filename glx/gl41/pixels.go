// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gl41

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Pixels transforms a given image into the right arrangement of
// pixels by drawing the decoded image onto a controlled RGBA canvas.
// A rowPitch above the tight row size pads every row to that pitch,
// for drivers with row alignment requirements. Zero keeps rows tight.
func Pixels(img image.Image, rowPitch int) []uint8 {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	if rowPitch > 4*bounds.Dx() {
		out.Stride = rowPitch
		out.Pix = make([]uint8, rowPitch*bounds.Dy())
	}
	xdraw.Draw(out, out.Bounds(), img, bounds.Min, xdraw.Src)
	return out.Pix
}

// Downscale returns img scaled down so that neither side exceeds
// maxDim. Images already within the limit come back untouched.
func Downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
