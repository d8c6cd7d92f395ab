package pointer

import (
	"image"
	"sync"

	"github.com/vedantwpatil/precision-mouse/internal/gaze"
	"github.com/vedantwpatil/precision-mouse/internal/headtracker"
)

var testScreen = ScreenFunc(func() image.Rectangle { return image.Rect(0, 0, 1920, 1080) })

type fakeGaze struct {
	sample    gaze.Sample
	has       bool
	connected bool
}

func (f *fakeGaze) push(p image.Point) {
	f.sample.Seq++
	f.sample.Point = p
	f.has = true
}

func (f *fakeGaze) Latest() (gaze.Sample, bool) { return f.sample, f.has }
func (f *fakeGaze) Connected() bool             { return f.connected }

type fakeHead struct {
	mu      sync.Mutex
	pose    headtracker.Pose
	readErr error
	openErr error
	opens   int
	closes  int
}

func (f *fakeHead) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	return f.openErr
}

func (f *fakeHead) Read() (headtracker.Pose, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pose, f.readErr
}

func (f *fakeHead) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeHead) set(fn func(*fakeHead)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeHead) counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}
