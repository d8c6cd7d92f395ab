package session

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedantwpatil/precision-mouse/internal/config"
	"github.com/vedantwpatil/precision-mouse/internal/gaze"
	"github.com/vedantwpatil/precision-mouse/internal/logging"
	"github.com/vedantwpatil/precision-mouse/internal/pointer"
	"github.com/vedantwpatil/precision-mouse/internal/tracking"
)

type fakeTracker struct {
	calls       []string
	mode        tracking.Mode
	movement    tracking.Movement
	sensitivity int
	modeErr     error
	status      string
	err         error
}

func (f *fakeTracker) add(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeTracker) Update(p image.Point) { f.add("update %d,%d", p.X, p.Y) }
func (f *fakeTracker) MovementKeyDown()     { f.add("movement down") }
func (f *fakeTracker) MovementKeyUp()       { f.add("movement up") }
func (f *fakeTracker) PauseKeyDown()        { f.add("pause") }

func (f *fakeTracker) SetMode(m tracking.Mode) error {
	f.add("mode %v", m)
	if f.modeErr != nil {
		return f.modeErr
	}
	f.mode = m
	return nil
}

func (f *fakeTracker) SetMovement(m tracking.Movement) error {
	f.add("movement %v", m)
	f.movement = m
	return nil
}

func (f *fakeTracker) SetSensitivity(s int) {
	f.add("sensitivity %d", s)
	f.sensitivity = s
}

func (f *fakeTracker) Mode() tracking.Mode         { return f.mode }
func (f *fakeTracker) Movement() tracking.Movement { return f.movement }
func (f *fakeTracker) Sensitivity() int            { return f.sensitivity }
func (f *fakeTracker) Status() string              { return f.status }
func (f *fakeTracker) Sample() string              { return "" }
func (f *fakeTracker) Err() error                  { return f.err }

type fakeClicker struct{ tracker *fakeTracker }

func (c fakeClicker) ClickKeyDown(at time.Time) { c.tracker.add("click down %s", at.Format("05.000")) }
func (c fakeClicker) ClickKeyUp(at time.Time, pos image.Point) {
	c.tracker.add("click up %s %d,%d", at.Format("05.000"), pos.X, pos.Y)
}

// fakeDesktop is an OS cursor whose position follows the moves made on it.
type fakeDesktop struct {
	mu    sync.Mutex
	pos   image.Point
	calls []string
}

func (d *fakeDesktop) Position() image.Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

func (d *fakeDesktop) moveTo(p image.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = p
}

func (d *fakeDesktop) record(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDesktop) SetPosition(p image.Point) {
	d.record("set %d,%d", p.X, p.Y)
	d.moveTo(p)
}

func (d *fakeDesktop) MoveRelative(dx, dy int) {
	d.record("rel %d,%d", dx, dy)
	d.moveTo(d.Position().Add(image.Pt(dx, dy)))
}

func (d *fakeDesktop) ButtonDown() { d.record("down") }
func (d *fakeDesktop) ButtonUp()   { d.record("up") }
func (d *fakeDesktop) Click()      { d.record("click") }

type harness struct {
	ticks   chan time.Time
	keys    chan tracking.KeyEdge
	reloads chan *config.Config
	cancel  context.CancelFunc
	done    chan error
}

func start(t *testing.T, l *Loop) *harness {
	t.Helper()
	h := &harness{
		ticks:   make(chan time.Time),
		keys:    make(chan tracking.KeyEdge),
		reloads: make(chan *config.Config),
		done:    make(chan error, 1),
	}
	l.Ticks, l.Keys, l.Reloads = h.ticks, h.keys, h.reloads

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- l.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

func (h *harness) tick() { h.ticks <- time.Time{} }

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLoopRoutesEvents(t *testing.T) {
	tracker := &fakeTracker{}
	desk := &fakeDesktop{pos: image.Pt(40, 50)}
	h := start(t, &Loop{Tracker: tracker, Gestures: fakeClicker{tracker}, Pointer: desk})

	h.tick()
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyMovement, Down: true, At: base}
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyClick, Down: true, At: base.Add(100 * time.Millisecond)}
	desk.moveTo(image.Pt(60, 70))
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyClick, Down: false, At: base.Add(180 * time.Millisecond)}
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyPause, Down: true, At: base}
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyPause, Down: false, At: base}
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyMovement, Down: false, At: base}
	h.tick()
	h.stop(t)

	want := []string{
		"update 40,50",
		"movement down",
		"click down 00.100",
		"click up 00.180 60,70",
		"pause",
		"movement up",
		"update 60,70",
	}
	assert.Empty(t, cmp.Diff(want, tracker.calls))
}

func TestLoopAppliesReloads(t *testing.T) {
	tracker := &fakeTracker{mode: tracking.ModeGazeAndHeadTracker, sensitivity: 10}
	h := start(t, &Loop{Tracker: tracker, Pointer: &fakeDesktop{}})

	unchanged := config.NewConfig()
	h.reloads <- unchanged

	changed := config.NewConfig()
	changed.Mode = tracking.ModeHeadTrackerOnly.String()
	changed.Movement = tracking.MovementHotkey.String()
	changed.Sensitivity = 25
	h.reloads <- changed
	h.stop(t)

	want := []string{
		"mode headtracker",
		"movement hotkey",
		"sensitivity 25",
	}
	assert.Empty(t, cmp.Diff(want, tracker.calls))
}

func TestLoopKeepsRunningWhenReloadFails(t *testing.T) {
	tracker := &fakeTracker{mode: tracking.ModeGazeAndHeadTracker, sensitivity: 10, modeErr: tracking.ErrConfiguration}
	h := start(t, &Loop{Tracker: tracker, Pointer: &fakeDesktop{}})

	changed := config.NewConfig()
	changed.Mode = tracking.ModeCameraOnly.String()
	h.reloads <- changed
	h.tick()
	h.stop(t)

	assert.Equal(t, []string{"mode camera", "update 0,0"}, tracker.calls)
	assert.Equal(t, tracking.ModeGazeAndHeadTracker, tracker.mode)
}

func TestLoopKeepsFixedModeAcrossReloads(t *testing.T) {
	tracker := &fakeTracker{mode: tracking.ModeHeadTrackerJoystick, sensitivity: 10}
	h := start(t, &Loop{Tracker: tracker, Pointer: &fakeDesktop{}, FixedMode: true})

	changed := config.NewConfig()
	changed.Sensitivity = 30
	h.reloads <- changed
	h.stop(t)

	assert.Equal(t, []string{"sensitivity 30"}, tracker.calls)
	assert.Equal(t, tracking.ModeHeadTrackerJoystick, tracker.mode)
}

func TestLoopLogsTrackingError(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "text", Output: &buf})
	require.NoError(t, err)

	tracker := &fakeTracker{
		status: "No head tracker connection",
		err:    fmt.Errorf("%w: rotation precision", tracking.ErrDeviceUnavailable),
	}
	h := start(t, &Loop{Tracker: tracker, Pointer: &fakeDesktop{}, Logger: logger})
	h.tick()
	h.stop(t)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "tracking device unavailable: rotation precision")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("tracking status")))
}

func TestLoopSurvivesClosedKeys(t *testing.T) {
	tracker := &fakeTracker{}
	h := start(t, &Loop{Tracker: tracker, Pointer: &fakeDesktop{}})

	close(h.keys)
	h.tick()
	h.stop(t)

	assert.Equal(t, []string{"update 0,0"}, tracker.calls)
}

type stillGaze struct {
	sample gaze.Sample
}

func (g *stillGaze) Latest() (gaze.Sample, bool) { return g.sample, true }
func (g *stillGaze) Connected() bool             { return true }

func TestLoopDrivesCoordinator(t *testing.T) {
	desk := &fakeDesktop{pos: image.Pt(10, 10)}
	stream := &stillGaze{sample: gaze.Sample{Point: image.Pt(800, 600), Seq: 1}}
	screen := pointer.ScreenFunc(func() image.Rectangle { return image.Rect(0, 0, 1920, 1080) })
	now := base

	coord, err := tracking.NewCoordinator(tracking.Options{
		Mode:        tracking.ModeGazeOnly,
		Sensitivity: 20,
		Sources: &pointer.Factory{
			Screen:        screen,
			Gaze:          stream,
			WarpSamples:   1,
			WarpThreshold: 100,
			Smoothing:     1,
		},
		Cursor: desk,
		Screen: screen,
		Clock:  func() time.Time { return now },
	})
	require.NoError(t, err)
	defer coord.Close()
	gestures := tracking.NewGestures(coord, desk, tracking.GestureOptions{})

	h := start(t, &Loop{Tracker: coord, Gestures: gestures, Pointer: desk})
	h.tick() // Starting -> Running
	h.tick() // warp to the gaze point
	h.tick() // nothing changed
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyClick, Down: true, At: base}
	h.keys <- tracking.KeyEdge{Key: tracking.HotkeyClick, Down: false, At: base.Add(80 * time.Millisecond)}
	desk.moveTo(image.Pt(100, 100))
	h.tick() // hand on the mouse
	h.stop(t)

	assert.Equal(t, tracking.StatePaused, coord.State())
	assert.Empty(t, cmp.Diff([]string{"set 800,600", "click"}, desk.calls))
}
