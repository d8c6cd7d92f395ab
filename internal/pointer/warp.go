package pointer

import (
	"image"

	"github.com/vedantwpatil/precision-mouse/internal/gaze"
)

type identityWarp struct{}

func (identityWarp) NextPoint(current image.Point) image.Point { return current }
func (identityWarp) IsWarpReady() bool                         { return true }
func (identityWarp) RefreshTracking()                          {}
func (identityWarp) IsStarted() bool                           { return true }
func (identityWarp) Close() error                              { return nil }

// centeredWarp always answers the screen centre captured at the last refresh.
type centeredWarp struct {
	screen Screen
	center image.Point
}

func newCenteredWarp(screen Screen) *centeredWarp {
	w := &centeredWarp{screen: screen}
	w.RefreshTracking()
	return w
}

func (w *centeredWarp) NextPoint(image.Point) image.Point { return w.center }
func (w *centeredWarp) IsWarpReady() bool                 { return true }
func (w *centeredWarp) RefreshTracking()                  { w.center = Center(w.screen.Bounds()) }
func (w *centeredWarp) IsStarted() bool                   { return true }
func (w *centeredWarp) Close() error                      { return nil }

// GazeWarp places the warp point at the mean of the most recent gaze samples.
// Once placed it stays put until the smoothed gaze drifts past the threshold,
// so small fixation jitter never moves the baseline the precision stage works
// from.
type GazeWarp struct {
	stream    gaze.Stream
	threshold int
	window    sampleWindow

	warp   image.Point
	ready  bool
	closed bool
}

// NewGazeWarp builds a gaze warp that needs samples fixations before it is
// ready and re-warps when the gaze moves more than threshold pixels away.
func NewGazeWarp(stream gaze.Stream, samples, threshold int) *GazeWarp {
	return &GazeWarp{
		stream:    stream,
		threshold: threshold,
		window:    newSampleWindow(samples),
	}
}

// IsStarted reports whether the gaze stream is connected.
func (w *GazeWarp) IsStarted() bool {
	return !w.closed && w.stream.Connected()
}

// IsWarpReady reports whether a full window of fresh samples arrived.
func (w *GazeWarp) IsWarpReady() bool {
	w.window.ingest(w.stream)
	if !w.ready && w.window.full() {
		w.warp = w.window.mean()
		w.ready = true
	}
	return w.ready
}

// NextPoint returns the current warp point, or current while not ready.
func (w *GazeWarp) NextPoint(current image.Point) image.Point {
	if !w.IsWarpReady() {
		return current
	}
	m := w.window.mean()
	if distance(m, w.warp) > float64(w.threshold) {
		w.warp = m
	}
	return w.warp
}

// RefreshTracking discards collected samples so the next warp uses fresh
// fixations only.
func (w *GazeWarp) RefreshTracking() {
	w.window.clear()
	w.ready = false
}

// Close detaches from the stream. The stream itself is shared and stays open.
func (w *GazeWarp) Close() error {
	w.closed = true
	return nil
}
