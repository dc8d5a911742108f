package source

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/bmp"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, encodePNG(t, img), 0o644))
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder()
	assert.Equal(t, image.Rect(0, 0, 1, 1), p.Bounds())
	assert.Equal(t, PlaceholderColor, p.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{0x1a, 0x1a, 0x1a, 0xff}, PlaceholderColor)
}

func TestDecodeFormats(t *testing.T) {
	src := solid(6, 4, color.NRGBA{R: 200, G: 10, B: 30, A: 255})

	img, format, err := Decode(bytes.NewReader(encodePNG(t, src)), 0)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, src.Pix, img.Pix)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))
	img, format, err = Decode(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 30, A: 255}, img.NRGBAAt(5, 3))

	_, _, err = Decode(bytes.NewReader([]byte("not an image")), 0)
	assert.Error(t, err)
}

func TestToNRGBANormalizesOrigin(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(10, 10, 13, 12))
	rgba.Set(10, 10, color.RGBA{R: 255, A: 255})
	out := ToNRGBA(rgba)
	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
	assert.Equal(t, uint8(255), out.NRGBAAt(0, 0).R)

	same := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, same, ToNRGBA(same))
}

func TestFitDownscales(t *testing.T) {
	img := solid(400, 100, color.NRGBA{G: 255, A: 255})
	out := Fit(img, 200)
	assert.Equal(t, image.Rect(0, 0, 200, 50), out.Bounds())
	assert.InDelta(t, 255, int(out.NRGBAAt(100, 25).G), 1)

	tall := Fit(solid(10, 40, color.NRGBA{A: 255}), 20)
	assert.Equal(t, image.Rect(0, 0, 5, 20), tall.Bounds())

	assert.Same(t, img, Fit(img, 0))
	assert.Same(t, img, Fit(img, 400))
}

func TestLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.png")
	writePNG(t, path, solid(8, 8, color.NRGBA{B: 255, A: 255}))

	l := NewLoader(path, Options{Logger: zaptest.NewLogger(t)})
	img, gen := l.Latest()
	assert.Zero(t, gen)
	assert.Equal(t, PlaceholderColor, img.NRGBAAt(0, 0))

	require.NoError(t, l.Load(context.Background()))
	img, gen = l.Latest()
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.NoError(t, l.Err())
}

func TestLoaderFailureKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.png")
	writePNG(t, path, solid(3, 3, color.NRGBA{R: 1, A: 255}))
	l := NewLoader(path, Options{})
	require.NoError(t, l.Load(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	assert.Error(t, l.Load(context.Background()))
	assert.Error(t, l.Err())
	img, gen := l.Latest()
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, 3, img.Bounds().Dx())

	missing := NewLoader(filepath.Join(t.TempDir(), "nope.png"), Options{})
	assert.Error(t, missing.Load(context.Background()))
}

func TestLoaderURL(t *testing.T) {
	body := encodePNG(t, solid(5, 7, color.NRGBA{G: 9, A: 255}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := NewLoader(srv.URL+"/img.png", Options{Client: srv.Client()})
	require.True(t, IsURL(l.Ref()))
	require.NoError(t, l.Load(context.Background()))
	img, gen := l.Latest()
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, image.Rect(0, 0, 5, 7), img.Bounds())

	bad := NewLoader(srv.URL+"/missing.png", Options{Client: srv.Client()})
	err := bad.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	assert.Error(t, l.Watch(context.Background(), time.Millisecond))
}

func TestLoaderStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.png")
	writePNG(t, path, solid(2, 2, color.NRGBA{A: 255}))
	l := NewLoader(path, Options{})
	l.Start(context.Background())
	assert.Eventually(t, func() bool {
		_, gen := l.Latest()
		return gen == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.png")
	writePNG(t, path, solid(4, 4, color.NRGBA{R: 10, A: 255}))
	l := NewLoader(path, Options{})
	require.NoError(t, l.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Watch(ctx, 20*time.Millisecond))

	writePNG(t, path, solid(6, 6, color.NRGBA{R: 20, A: 255}))
	assert.Eventually(t, func() bool {
		img, gen := l.Latest()
		return gen >= 2 && img.Bounds().Dx() == 6
	}, 5*time.Second, 10*time.Millisecond)
}
