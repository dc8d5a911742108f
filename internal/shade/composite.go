package shade

import (
	"fmt"
	"image"
	"math"

	"ripple/internal/config"
	"ripple/internal/wave"
)

var (
	lightX, lightY, lightZ = normalize3(-3, 10, 3)
	glintTint              = RGB{1.0, 0.95, 0.9}
)

const glintPower = 60

// Pixel shades the target pixel (col, row), rows counted from the top of a
// target of the field's size. The field texel under the pixel supplies the
// refraction gradient.
func Pixel(field *wave.Field, img *image.NRGBA, fit Fit, cfg config.Config, col, row int) RGB {
	h := field.Height
	tx := field.At(col, h-1-row)
	s, t := fit.TexCoord(float32(col)+0.5, float32(h-row)-0.5)

	dx := cfg.DistortionStrength * tx.GradX
	dy := cfg.DistortionStrength * tx.GradY
	bs, bt := s+dx, t+dy

	var c RGB
	if !cfg.AberrationActive() {
		c = Sample(img, bs, bt)
	} else {
		ox, oy := s-0.5, t-0.5
		amount := length2(dx, dy)*cfg.ChromaticAberrationStrength*0.5 +
			length2(ox, oy)*cfg.ChromaticAberrationStrength*cfg.ChromaticAberrationDispersal
		dirX, dirY := normalize2(ox+0.001, oy+0.001)
		c[0] = clamp01(Sample(img, bs-dirX*amount, bt-dirY*amount)[0])
		c[1] = clamp01(Sample(img, bs, bt)[1])
		c[2] = clamp01(Sample(img, bs+dirX*amount, bt+dirY*amount)[2])
	}

	nx, ny, nz := normalize3(-tx.GradX, 0.2, -tx.GradY)
	dot := nx*lightX + ny*lightY + nz*lightZ
	if dot > 0 {
		g := float32(math.Pow(float64(dot), glintPower))
		for i := range c {
			c[i] += g * glintTint[i]
		}
	}
	return c
}

// CompositeRows shades target rows [y0, y1) into dst.
func CompositeRows(dst *image.RGBA, field *wave.Field, img *image.NRGBA, cfg config.Config, y0, y1 int) {
	b := img.Bounds()
	fit := CoverFit(field.Width, field.Height, b.Dx(), b.Dy())
	for row := y0; row < y1; row++ {
		o := row * dst.Stride
		for col := 0; col < field.Width; col++ {
			c := Pixel(field, img, fit, cfg, col, row)
			px := dst.Pix[o+col*4 : o+col*4+4 : o+col*4+4]
			px[0] = toByte(c[0])
			px[1] = toByte(c[1])
			px[2] = toByte(c[2])
			px[3] = 0xff
		}
	}
}

// Composite shades the whole target. dst must match the field size.
func Composite(dst *image.RGBA, field *wave.Field, img *image.NRGBA, cfg config.Config) error {
	if err := CheckTarget(dst, field); err != nil {
		return err
	}
	CompositeRows(dst, field, img, cfg, 0, field.Height)
	return nil
}

// CheckTarget reports whether dst can receive a composite of field.
func CheckTarget(dst *image.RGBA, field *wave.Field) error {
	b := dst.Bounds()
	if b.Dx() != field.Width || b.Dy() != field.Height {
		return fmt.Errorf("target %dx%d does not match field %dx%d", b.Dx(), b.Dy(), field.Width, field.Height)
	}
	return nil
}

func toByte(v float32) uint8 {
	return uint8(math.Round(float64(clamp01(v)) * 255))
}

func length2(x, y float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y)))
}

func normalize2(x, y float32) (float32, float32) {
	l := length2(x, y)
	return x / l, y / l
}

func normalize3(x, y, z float32) (float32, float32, float32) {
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	return x / l, y / l, z / l
}
