// Package desktop connects the tracker to the operating system: the mouse
// cursor, display geometry, global hotkeys and the key that toggles an
// external camera tracker.
package desktop

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
)

// Cursor drives the OS mouse pointer.
type Cursor struct{}

func (Cursor) SetPosition(p image.Point) { robotgo.Move(p.X, p.Y) }
func (Cursor) MoveRelative(dx, dy int)   { robotgo.MoveRelative(dx, dy) }
func (Cursor) ButtonDown()               { robotgo.Toggle("left") }
func (Cursor) ButtonUp()                 { robotgo.Toggle("left", "up") }
func (Cursor) Click()                    { robotgo.Click("left", false) }

// Position reads where the OS currently has the pointer.
func (Cursor) Position() image.Point {
	x, y := robotgo.Location()
	return image.Pt(x, y)
}

// CameraKey taps the start/stop hotkey of an external camera tracker.
type CameraKey struct {
	Key string
}

func (k CameraKey) Toggle() error {
	if err := robotgo.KeyTap(k.Key); err != nil {
		return fmt.Errorf("tap camera key %q: %w", k.Key, err)
	}
	return nil
}

const displayRefresh = time.Second

// Display reports the bounds of one monitor. Bounds are re-read at most once
// a second so a resolution change is picked up without querying the display
// server on every tick.
type Display struct {
	index  int
	logger *slog.Logger

	mu      sync.Mutex
	bounds  image.Rectangle
	fetched time.Time
}

// NewDisplay returns the display with the given index, 0 being the primary.
func NewDisplay(index int, logger *slog.Logger) *Display {
	return &Display{index: index, logger: logging.OrDiscard(logger)}
}

func (d *Display) Bounds() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now := time.Now(); d.bounds.Empty() || now.Sub(d.fetched) >= displayRefresh {
		b := d.query()
		if b != d.bounds {
			d.logger.Info("display bounds", "display", d.index, "bounds", b.String())
		}
		d.bounds, d.fetched = b, now
	}
	return d.bounds
}

func (d *Display) query() image.Rectangle {
	if d.index < screenshot.NumActiveDisplays() {
		if b := screenshot.GetDisplayBounds(d.index); !b.Empty() {
			return b
		}
	}
	w, h := robotgo.GetScreenSize()
	return image.Rect(0, 0, w, h)
}
