// Package headtracker reads head orientation and translation samples from
// head-tracking hardware.
//
// Clients buffer the most recent pose in the background and answer Read
// immediately; they never block the caller waiting for the device.
package headtracker

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/vedantwpatil/precision-mouse/internal/latest"
)

// Full-scale value of a tracker axis. Rotation spans ±180 degrees and
// translation spans ±500 mm over this range.
const (
	AxisRange = 16383.0

	unitsPerDegree = AxisRange / 180.0
	unitsPerMM     = AxisRange / 500.0
)

var (
	// ErrNotOpen is returned by Read before Open succeeds or after Close.
	ErrNotOpen = errors.New("head tracker not open")
	// ErrNoData is returned by Read while the device has not produced a sample.
	ErrNoData = errors.New("head tracker has not produced a sample yet")
)

// Pose is one head-tracker sample in tracker units.
type Pose struct {
	Yaw   float64
	Pitch float64
	X     float64
	Y     float64
}

// FromDegrees converts angles in degrees and translation in millimetres to
// tracker units.
func FromDegrees(yaw, pitch, xMM, yMM float64) Pose {
	return Pose{
		Yaw:   yaw * unitsPerDegree,
		Pitch: pitch * unitsPerDegree,
		X:     xMM * unitsPerMM,
		Y:     yMM * unitsPerMM,
	}
}

// Translation returns the head translation in screen direction. The device
// frame is mirrored on both axes relative to the screen.
func (p Pose) Translation() image.Point {
	return image.Pt(-int(p.X), -int(p.Y))
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.0f, %.0f)", p.Yaw, p.Pitch)
}

// Client is a head-tracker device connection.
type Client interface {
	Open() error
	// Read returns the most recent pose without waiting for the device.
	Read() (Pose, error)
	Close() error
}

// feed is the state shared by a client and its reader goroutine.
type feed struct {
	pose latest.Value[Pose]

	mu     sync.Mutex
	open   bool
	failed error
}

func (f *feed) start() {
	f.mu.Lock()
	f.open = true
	f.failed = nil
	f.mu.Unlock()
	f.pose.Reset()
}

func (f *feed) fail(err error) {
	f.mu.Lock()
	if f.open && f.failed == nil {
		f.failed = err
	}
	f.mu.Unlock()
}

func (f *feed) stop() {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
}

func (f *feed) read() (Pose, error) {
	f.mu.Lock()
	open, failed := f.open, f.failed
	f.mu.Unlock()

	if !open {
		return Pose{}, ErrNotOpen
	}
	if failed != nil {
		return Pose{}, failed
	}
	pose, ok := f.pose.Load()
	if !ok {
		return Pose{}, ErrNoData
	}
	return pose, nil
}
