package pointer

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vedantwpatil/precision-mouse/internal/gaze"
)

// sampleWindow keeps the last size gaze samples, ignoring repeats of a sample
// already seen.
type sampleWindow struct {
	size    int
	xs, ys  []float64
	lastSeq uint64
}

func newSampleWindow(size int) sampleWindow {
	if size < 1 {
		size = 1
	}
	return sampleWindow{
		size: size,
		xs:   make([]float64, 0, size),
		ys:   make([]float64, 0, size),
	}
}

func (w *sampleWindow) ingest(stream gaze.Stream) {
	s, ok := stream.Latest()
	if !ok || s.Seq == w.lastSeq {
		return
	}
	w.lastSeq = s.Seq
	if len(w.xs) == w.size {
		copy(w.xs, w.xs[1:])
		copy(w.ys, w.ys[1:])
		w.xs = w.xs[:w.size-1]
		w.ys = w.ys[:w.size-1]
	}
	w.xs = append(w.xs, float64(s.Point.X))
	w.ys = append(w.ys, float64(s.Point.Y))
}

func (w *sampleWindow) full() bool  { return len(w.xs) >= w.size }
func (w *sampleWindow) empty() bool { return len(w.xs) == 0 }

func (w *sampleWindow) clear() {
	w.xs = w.xs[:0]
	w.ys = w.ys[:0]
}

func (w *sampleWindow) mean() image.Point {
	if w.empty() {
		return image.Point{}
	}
	return image.Pt(
		int(math.Round(stat.Mean(w.xs, nil))),
		int(math.Round(stat.Mean(w.ys, nil))),
	)
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
