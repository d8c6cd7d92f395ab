package pointer

import (
	"fmt"
	"image"
	"math"

	"github.com/vedantwpatil/precision-mouse/internal/headtracker"
)

// Rotation scales: a warp point at the screen edge corresponds to this much
// yaw or pitch in tracker units.
const (
	yawSpan   = 600.0
	pitchSpan = 200.0

	translationDivisor = 1.5

	joystickLimit    = 10
	joystickDeadZone = 5.0
)

// HeadPrecision refines the warp point from head-tracker rotation and/or
// translation, or turns head orientation into a joystick vector.
type HeadPrecision struct {
	kind        PrecisionKind
	screen      Screen
	sensitivity int
	absX, absY  bool
	poll        *poller
}

// NextPoint applies the head offset to warp. In joystick mode warp is ignored
// and the result is a rate vector bounded to ±10 per axis.
func (h *HeadPrecision) NextPoint(warp image.Point) image.Point {
	pose, ok := h.poll.pose.Load()
	if h.kind == PrecisionJoystick {
		if !ok {
			return image.Point{}
		}
		return joystick(pose)
	}
	if !ok {
		return warp
	}

	bounds := h.screen.Bounds()
	switch h.kind {
	case PrecisionRotation:
		return rotate(warp, pose, bounds, h.sensitivity)
	case PrecisionTranslation:
		return translate(warp, pose, true)
	case PrecisionBoth:
		// Vertical head translation is unreliable and fights the pitch-derived
		// vertical offset, so only x is translated.
		return rotate(translate(warp, pose, false), pose, bounds, h.sensitivity)
	}
	return warp
}

// IsStarted reports whether the head tracker is delivering data.
func (h *HeadPrecision) IsStarted() bool { return h.poll.started.Load() }

// Sensitivity returns the rotation gain.
func (h *HeadPrecision) Sensitivity() int { return h.sensitivity }

// SetSensitivity changes the rotation gain.
func (h *HeadPrecision) SetSensitivity(s int) { h.sensitivity = s }

// JoystickAxes reports which joystick axes are driven absolutely.
func (h *HeadPrecision) JoystickAxes() (x, y bool) { return h.absX, h.absY }

// Close stops sampling and shuts the tracker down.
func (h *HeadPrecision) Close() error { return h.poll.stop() }

func (h *HeadPrecision) String() string {
	pose, ok := h.poll.pose.Load()
	if !ok {
		return ""
	}
	switch h.kind {
	case PrecisionTranslation:
		t := pose.Translation()
		return fmt.Sprintf("(%d, %d)", t.X, t.Y)
	case PrecisionBoth:
		return fmt.Sprintf("(%.0f, %.0f)", float64(pose.Translation().X)+pose.Yaw, pose.Pitch)
	}
	return pose.String()
}

func rotate(p image.Point, pose headtracker.Pose, b image.Rectangle, sensitivity int) image.Point {
	halfW, halfH := float64(b.Dx())/2, float64(b.Dy())/2
	baseYaw := (float64(p.X-b.Min.X) - halfW) / halfW * yawSpan
	basePitch := (float64(p.Y-b.Min.Y) - halfH) / halfH * pitchSpan

	gain := float64(sensitivity) / 20
	dx := int((-pose.Yaw - baseYaw) * gain)
	dy := int((pose.Pitch - basePitch) * gain)
	return p.Add(image.Pt(dx, dy))
}

func translate(p image.Point, pose headtracker.Pose, withY bool) image.Point {
	t := pose.Translation()
	d := image.Pt(int(float64(t.X)/translationDivisor), 0)
	if withY {
		d.Y = int(float64(t.Y) / translationDivisor)
	}
	return p.Add(d)
}

func joystick(pose headtracker.Pose) image.Point {
	return image.Pt(joystickAxis(-pose.Yaw/100), joystickAxis(pose.Pitch/100))
}

// joystickAxis maps a scaled orientation value to a bounded step. The dead
// zone applies to the value before halving and flooring.
func joystickAxis(v float64) int {
	if math.Abs(v) < joystickDeadZone {
		return 0
	}
	n := int(math.Floor(v / 2))
	return max(-joystickLimit, min(joystickLimit, n))
}
