package tracking

import (
	"image"
	"log/slog"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
)

const (
	// DefaultDragWindow is how soon after a click the click key must go down
	// again, with the movement key held, to start a drag.
	DefaultDragWindow = 250 * time.Millisecond
	// DefaultDoubleClickWindow is how soon a second click reuses the first
	// click's position.
	DefaultDoubleClickWindow = 500 * time.Millisecond
)

// Gate is the coordinator state gestures read and write.
type Gate interface {
	State() State
	MovementHeld() bool
	Dragging() bool
	SetDragging(dragging bool)
	Place(p image.Point)
}

// Buttons is the part of the cursor gestures press.
type Buttons interface {
	ButtonDown()
	ButtonUp()
	Click()
}

// GestureOptions configures Gestures. Zero windows take the defaults.
type GestureOptions struct {
	DragWindow        time.Duration
	DoubleClickWindow time.Duration
	Logger            *slog.Logger
}

// Gestures turns click key edges into clicks, double clicks and drags.
type Gestures struct {
	gate        Gate
	buttons     Buttons
	dragWindow  time.Duration
	doubleClick time.Duration
	logger      *slog.Logger

	lastUp    time.Time
	hasLastUp bool
	lastClick image.Point
}

// NewGestures returns a gesture interpreter acting on gate and buttons.
func NewGestures(gate Gate, buttons Buttons, opts GestureOptions) *Gestures {
	g := &Gestures{
		gate:        gate,
		buttons:     buttons,
		dragWindow:  opts.DragWindow,
		doubleClick: opts.DoubleClickWindow,
		logger:      logging.OrDiscard(opts.Logger),
	}
	if g.dragWindow <= 0 {
		g.dragWindow = DefaultDragWindow
	}
	if g.doubleClick <= 0 {
		g.doubleClick = DefaultDoubleClickWindow
	}
	return g
}

// ClickKeyDown handles the click key going down at time at. Pressing it again
// shortly after a click while the movement key is held grabs the button at the
// last click position.
func (g *Gestures) ClickKeyDown(at time.Time) {
	if g.suppressed() {
		return
	}
	if g.gate.Dragging() || !g.gate.MovementHeld() || !g.within(at, g.dragWindow) {
		return
	}
	g.gate.Place(g.lastClick)
	g.buttons.ButtonDown()
	g.gate.SetDragging(true)
	g.logger.Debug("drag started", "at", g.lastClick.String())
}

// ClickKeyUp handles the click key going up at time at with the cursor at
// pos. It ends a drag or clicks, reusing the previous click position for the
// second click of a double click.
func (g *Gestures) ClickKeyUp(at time.Time, pos image.Point) {
	if g.suppressed() {
		return
	}
	if g.gate.Dragging() {
		g.buttons.ButtonUp()
		g.gate.SetDragging(false)
		g.logger.Debug("drag ended", "at", pos.String())
	} else {
		target := pos
		if g.within(at, g.doubleClick) {
			target = g.lastClick
			g.logger.Debug("double click", "at", target.String())
		}
		if target != pos {
			g.gate.Place(target)
		}
		g.buttons.Click()
		g.lastClick = target
	}
	g.lastUp = at
	g.hasLastUp = true
}

func (g *Gestures) within(at time.Time, window time.Duration) bool {
	return g.hasLastUp && at.Sub(g.lastUp) < window
}

func (g *Gestures) suppressed() bool {
	s := g.gate.State()
	return s == StateError || s == StatePaused
}
