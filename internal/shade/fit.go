// Package shade is the host mirror of the composite kernel: cover-fit
// mapping, bilinear image sampling, refraction, chromatic aberration and
// glint.
package shade

// Fit maps viewport pixels onto a source image scaled to cover the viewport
// while keeping its aspect ratio, centred on both axes.
type Fit struct {
	Scale            float32
	OffsetX, OffsetY float32
	// Image size in pixels.
	ImageW, ImageH float32
}

// CoverFit computes the fit of an iw x ih image over a vw x vh viewport.
func CoverFit(vw, vh, iw, ih int) Fit {
	fw, fh := float32(vw), float32(vh)
	sw, sh := float32(iw), float32(ih)
	scale := fw / sw
	if s := fh / sh; s > scale {
		scale = s
	}
	return Fit{
		Scale:   scale,
		OffsetX: (fw - sw*scale) / 2,
		OffsetY: (fh - sh*scale) / 2,
		ImageW:  sw,
		ImageH:  sh,
	}
}

// TexCoord maps a fragment position (origin bottom-left, pixel centres at
// .5) to image texture coordinates with t = 0 at the image's top row.
func (f Fit) TexCoord(fx, fy float32) (s, t float32) {
	s = (fx - f.OffsetX) / f.Scale / f.ImageW
	t = (fy - f.OffsetY) / f.Scale / f.ImageH
	return s, 1 - t
}
