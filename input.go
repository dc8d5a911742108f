package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"ripple/internal/input"
)

// handleInput forwards pointer and touch activity to the tracker. Hovering
// forces the field; leaving the window or releasing a button or touch stops
// it.
func (g *Game) handleInput() {
	g.handleCursor()
	g.handleTouches()
}

func (g *Game) handleCursor() {
	x, y := ebiten.CursorPosition()
	inside := x >= 0 && y >= 0 && x < g.width && y < g.height
	moved := x != g.cursorX || y != g.cursorY
	g.cursorX, g.cursorY = x, y

	switch {
	case inside && moved:
		g.tracker.Move(g.toField(x, y))
	case !inside && g.cursorInside:
		g.tracker.Release()
	case !inside && moved && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		// Drag positions past the window edge go through the bounds check.
		g.tracker.DocumentMove(g.toField(x, y))
	}
	g.cursorInside = inside

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.tracker.Release()
	}
}

func (g *Game) handleTouches() {
	g.touchBuf = inpututil.AppendJustPressedTouchIDs(g.touchBuf[:0])
	for _, id := range g.touchBuf {
		g.touches[id] = struct{}{}
		g.tracker.TouchStart(g.toField(ebiten.TouchPosition(id)))
	}
	for id := range g.touches {
		if inpututil.IsTouchJustReleased(id) {
			delete(g.touches, id)
			g.tracker.Release()
			continue
		}
		if inpututil.TouchPressDuration(id) > 1 {
			g.tracker.Move(g.toField(ebiten.TouchPosition(id)))
		}
	}
}

func (g *Game) toField(x, y int) (float32, float32) {
	return input.ScreenToField(float64(x), float64(y), 0, 0, g.height)
}
