package main

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"
)

// Draw presents the last composited frame and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	if target := g.driver.Target(); target != nil && target.Bounds().Size() == screen.Bounds().Size() {
		screen.WritePixels(target.Pix)
	}

	if *debugFlag {
		s := g.driver.Stats()
		in := g.tracker.Snapshot()
		debugMsg := fmt.Sprintf("FPS: %.1f  TPS: %.1f\nDevice: %s (%s)\nFrame: %d (total %d)\nField: %dx%d\nImage generation: %d\nInput: %.0f,%.0f active=%t",
			ebiten.ActualFPS(), ebiten.ActualTPS(),
			s.Device, s.Precision,
			s.Frame, s.Stepped,
			s.Size.Width, s.Size.Height,
			s.ImageGeneration,
			in.X, in.Y, in.Active)
		ebitenutil.DebugPrint(screen, debugMsg)
	}
}

// Layout renders at device pixel resolution and reports every size change to
// the resizer, which rebuilds the surfaces on the next tick.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	w := int(math.Ceil(float64(outsideWidth) * scale))
	h := int(math.Ceil(float64(outsideHeight) * scale))
	if w != g.width || h != g.height {
		g.log.Debug("viewport changed", zap.Int("width", w), zap.Int("height", h), zap.Float64("scale", scale))
		g.width, g.height = w, h
		g.tracker.SetBounds(w, h)
		if g.drift != nil {
			g.drift.SetBounds(w, h)
		}
	}
	g.resizer.Observe(w, h)
	// Ebiten requires a positive screen; the driver sees the real size.
	return max(w, 1), max(h, 1)
}
