package tracking

import (
	"fmt"
	"image"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/pointer"
)

var testScreen = pointer.ScreenFunc(func() image.Rectangle { return image.Rect(0, 0, 1920, 1080) })

// recorder collects the calls made on fakes in order.
type recorder struct {
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) reset() { r.calls = nil }

type fakeCursor struct{ rec *recorder }

func (c fakeCursor) SetPosition(p image.Point) { c.rec.add("set %d,%d", p.X, p.Y) }
func (c fakeCursor) MoveRelative(dx, dy int)   { c.rec.add("rel %d,%d", dx, dy) }
func (c fakeCursor) ButtonDown()               { c.rec.add("down") }
func (c fakeCursor) ButtonUp()                 { c.rec.add("up") }
func (c fakeCursor) Click()                    { c.rec.add("click") }

type fakeCamera struct{ rec *recorder }

func (c fakeCamera) Toggle() error {
	c.rec.add("camera")
	return nil
}

type fakeWarp struct {
	name      string
	rec       *recorder
	started   bool
	ready     bool
	point     *image.Point
	refreshes int
}

func (w *fakeWarp) IsStarted() bool { return w.started }

func (w *fakeWarp) Close() error {
	w.rec.add("close %s", w.name)
	w.started = false
	return nil
}

func (w *fakeWarp) NextPoint(current image.Point) image.Point {
	if w.point != nil {
		return *w.point
	}
	return current
}

func (w *fakeWarp) IsWarpReady() bool { return w.ready }
func (w *fakeWarp) RefreshTracking() {
	w.refreshes++
	w.rec.add("refresh %s", w.name)
}

type fakePrecision struct {
	name        string
	rec         *recorder
	started     bool
	offset      image.Point
	sensitivity int
	joystick    bool
	vector      image.Point
	absX, absY  bool
}

func (p *fakePrecision) IsStarted() bool { return p.started }

func (p *fakePrecision) Close() error {
	p.rec.add("close %s", p.name)
	p.started = false
	return nil
}

func (p *fakePrecision) NextPoint(warp image.Point) image.Point {
	if p.joystick {
		return p.vector
	}
	return warp.Add(p.offset)
}

func (p *fakePrecision) Sensitivity() int          { return p.sensitivity }
func (p *fakePrecision) SetSensitivity(s int)      { p.sensitivity = s }
func (p *fakePrecision) JoystickAxes() (x, y bool) { return p.absX, p.absY }
func (p *fakePrecision) String() string            { return fmt.Sprintf("(%d, %d)", p.offset.X, p.offset.Y) }

// fakeSources hands out fresh fakes and records construction order next to
// the disposals the fakes record themselves.
type fakeSources struct {
	rec       *recorder
	warps     []*fakeWarp
	precs     []*fakePrecision
	warpUp    bool
	precUp    bool
	warpReady bool
	warpErr   error
}

func newFakeSources(rec *recorder) *fakeSources {
	return &fakeSources{rec: rec, warpUp: true, precUp: true}
}

func (f *fakeSources) Warp(kind pointer.WarpKind) (pointer.Warp, error) {
	if f.warpErr != nil {
		return nil, f.warpErr
	}
	w := &fakeWarp{name: "warp:" + kind.String(), rec: f.rec, started: f.warpUp, ready: f.warpReady}
	f.rec.add("open %s", w.name)
	f.warps = append(f.warps, w)
	return w, nil
}

func (f *fakeSources) Precision(kind pointer.PrecisionKind, sensitivity int) (pointer.Precision, error) {
	p := &fakePrecision{
		name:        "precision:" + kind.String(),
		rec:         f.rec,
		started:     f.precUp,
		sensitivity: sensitivity,
		joystick:    kind == pointer.PrecisionJoystick,
	}
	f.rec.add("open %s", p.name)
	f.precs = append(f.precs, p)
	return p, nil
}

func (f *fakeSources) warp() *fakeWarp           { return f.warps[len(f.warps)-1] }
func (f *fakeSources) precision() *fakePrecision { return f.precs[len(f.precs)-1] }

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
