package pointer

import (
	"image"

	"github.com/vedantwpatil/precision-mouse/internal/gaze"
)

type noPrecision struct {
	sensitivity int
}

func (*noPrecision) NextPoint(warp image.Point) image.Point { return warp }
func (*noPrecision) IsStarted() bool                        { return true }
func (*noPrecision) Close() error                           { return nil }
func (n *noPrecision) Sensitivity() int                     { return n.sensitivity }
func (n *noPrecision) SetSensitivity(s int)                 { n.sensitivity = s }

// GazePrecision nudges the warp point toward the smoothed gaze. At
// sensitivity 20 the cursor follows the smoothed gaze exactly; lower values
// damp the correction.
type GazePrecision struct {
	stream      gaze.Stream
	sensitivity int
	window      sampleWindow
	closed      bool
}

// NewGazePrecision smooths over the last smoothing samples.
func NewGazePrecision(stream gaze.Stream, smoothing, sensitivity int) *GazePrecision {
	return &GazePrecision{
		stream:      stream,
		sensitivity: sensitivity,
		window:      newSampleWindow(smoothing),
	}
}

// NextPoint returns warp shifted toward the smoothed gaze.
func (g *GazePrecision) NextPoint(warp image.Point) image.Point {
	g.window.ingest(g.stream)
	if g.window.empty() {
		return warp
	}
	off := g.window.mean().Sub(warp)
	return warp.Add(image.Pt(off.X*g.sensitivity/20, off.Y*g.sensitivity/20))
}

// IsStarted reports whether the gaze stream is connected.
func (g *GazePrecision) IsStarted() bool { return !g.closed && g.stream.Connected() }

func (g *GazePrecision) Sensitivity() int     { return g.sensitivity }
func (g *GazePrecision) SetSensitivity(s int) { g.sensitivity = s }

// Close detaches from the shared stream.
func (g *GazePrecision) Close() error {
	g.closed = true
	return nil
}
