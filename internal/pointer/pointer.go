// Package pointer implements the two stages that turn tracker input into a
// cursor target: a coarse warp point and a fine precision correction applied
// on top of it.
//
// The variants form a closed set selected by WarpKind and PrecisionKind and
// built by a Factory. Device-backed variants sample their hardware on their own
// timer and hand the coordinator the most recent reading without blocking.
package pointer

import (
	"fmt"
	"image"
)

// Screen reports the bounds of the active display. It is polled on every use
// because the display configuration can change while running.
type Screen interface {
	Bounds() image.Rectangle
}

// ScreenFunc adapts a function to Screen.
type ScreenFunc func() image.Rectangle

// Bounds calls f.
func (f ScreenFunc) Bounds() image.Rectangle { return f() }

// Center returns the middle of r.
func Center(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}

// Source is the lifecycle shared by every pointer variant.
type Source interface {
	// IsStarted reports whether the backing device is connected.
	IsStarted() bool
	// Close releases the device. A closed source reports not started.
	Close() error
}

// Warp produces the coarse target point.
type Warp interface {
	Source
	NextPoint(current image.Point) image.Point
	// IsWarpReady reports whether enough input arrived since the last
	// RefreshTracking to place the warp point.
	IsWarpReady() bool
	RefreshTracking()
}

// Precision refines the warp point.
type Precision interface {
	Source
	NextPoint(warp image.Point) image.Point
	Sensitivity() int
	SetSensitivity(sensitivity int)
}

// JoystickRouter is implemented by precision sources that emit a rate vector
// instead of an absolute point. An axis reported true is driven as an
// absolute position reached through relative moves; a false axis is sent to
// the OS as a raw relative delta.
type JoystickRouter interface {
	JoystickAxes() (x, y bool)
}

// WarpKind selects a warp variant.
type WarpKind int

const (
	// WarpNone passes the current point through unchanged.
	WarpNone WarpKind = iota
	// WarpGaze places the warp point at the averaged gaze fixation.
	WarpGaze
	// WarpCentered pins the warp point to the screen centre, recentred on
	// every RefreshTracking.
	WarpCentered
)

func (k WarpKind) String() string {
	switch k {
	case WarpNone:
		return "none"
	case WarpGaze:
		return "gaze"
	case WarpCentered:
		return "centered"
	default:
		return fmt.Sprintf("WarpKind(%d)", int(k))
	}
}

// PrecisionKind selects a precision variant.
type PrecisionKind int

const (
	PrecisionNone PrecisionKind = iota
	// PrecisionRotation offsets by head yaw and pitch.
	PrecisionRotation
	// PrecisionTranslation offsets by head translation.
	PrecisionTranslation
	// PrecisionBoth applies horizontal translation, then rotation.
	PrecisionBoth
	// PrecisionJoystick treats head orientation as a rate input.
	PrecisionJoystick
	// PrecisionGaze offsets by the smoothed gaze relative to the warp point.
	PrecisionGaze
)

func (k PrecisionKind) String() string {
	switch k {
	case PrecisionNone:
		return "none"
	case PrecisionRotation:
		return "rotation"
	case PrecisionTranslation:
		return "translation"
	case PrecisionBoth:
		return "rotation+translation"
	case PrecisionJoystick:
		return "joystick"
	case PrecisionGaze:
		return "gaze"
	default:
		return fmt.Sprintf("PrecisionKind(%d)", int(k))
	}
}

// head reports whether the kind is driven by a head tracker.
func (k PrecisionKind) head() bool {
	switch k {
	case PrecisionRotation, PrecisionTranslation, PrecisionBoth, PrecisionJoystick:
		return true
	}
	return false
}
