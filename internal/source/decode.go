// Package source loads the still image the ripples are composited over.
package source

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PlaceholderColor fills the image shown until the real one has loaded.
var PlaceholderColor = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}

// Placeholder returns a fresh 1x1 placeholder image.
func Placeholder() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, PlaceholderColor)
	return img
}

// Decode reads an image in any registered format and returns it as NRGBA
// with its top-left at the origin. Images larger than maxDim on either side
// are scaled down to fit; maxDim <= 0 disables scaling.
func Decode(r io.Reader, maxDim int) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return Fit(ToNRGBA(img), maxDim), format, nil
}

// ToNRGBA converts img, reusing it when it already is a zero-origin NRGBA.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Fit scales img down with Catmull-Rom filtering so neither side exceeds
// maxDim, preserving aspect ratio.
func Fit(img *image.NRGBA, maxDim int) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}
	out := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}
