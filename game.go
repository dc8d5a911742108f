package main

import (
	"go.uber.org/zap"

	"github.com/hajimehoshi/ebiten/v2"

	"ripple/internal/frame"
	"ripple/internal/input"
)

// Game adapts the frame driver to Ebiten's update, draw and layout calls.
type Game struct {
	driver  *frame.Driver
	resizer *frame.Resizer
	ticker  *frame.Ticker
	tracker *input.Tracker
	drift   *input.Drift
	log     *zap.Logger

	width, height int

	cursorX, cursorY int
	cursorInside     bool
	touches          map[ebiten.TouchID]struct{}
	touchBuf         []ebiten.TouchID
}

// newGame wires the driver and input adapters. drift may be nil.
func newGame(driver *frame.Driver, resizer *frame.Resizer, ticker *frame.Ticker,
	tracker *input.Tracker, drift *input.Drift, log *zap.Logger,
) *Game {
	return &Game{
		driver:  driver,
		resizer: resizer,
		ticker:  ticker,
		tracker: tracker,
		drift:   drift,
		log:     log,
		touches: make(map[ebiten.TouchID]struct{}),
	}
}

// Update feeds input, then runs every callback due this refresh: pending
// rebuilds and the frame step. A failure in either ends the game.
func (g *Game) Update() error {
	if g.drift != nil {
		g.drift.Advance(1.0 / 60)
	} else {
		g.handleInput()
	}
	g.ticker.Tick()
	if err := g.resizer.Err(); err != nil {
		return err
	}
	return g.driver.Err()
}
