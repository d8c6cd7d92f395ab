package tracking

import (
	"fmt"
	"strings"

	"github.com/vedantwpatil/precision-mouse/internal/pointer"
)

// Mode selects which warp and precision sources are active and how their
// output reaches the cursor.
type Mode int

const (
	// ModeGazeAndCamera warps by gaze; a camera tracker moves the cursor from there.
	ModeGazeAndCamera Mode = iota
	// ModeGazeAndHeadTracker warps by gaze and refines with head rotation.
	ModeGazeAndHeadTracker
	// ModeGazeAndSmartNav warps by gaze; a SmartNav-style device moves the cursor.
	ModeGazeAndSmartNav
	// ModeGazeOnly warps and refines by gaze alone.
	ModeGazeOnly
	// ModeHeadTrackerOnly points absolutely with head rotation and translation.
	ModeHeadTrackerOnly
	// ModeHeadTrackerJoystick steers the cursor with head orientation as a rate.
	ModeHeadTrackerJoystick
	// ModeCameraOnly leaves the cursor to a camera tracker.
	ModeCameraOnly
)

var modeNames = map[Mode]string{
	ModeGazeAndCamera:       "gaze+camera",
	ModeGazeAndHeadTracker:  "gaze+headtracker",
	ModeGazeAndSmartNav:     "gaze+smartnav",
	ModeGazeOnly:            "gaze",
	ModeHeadTrackerOnly:     "headtracker",
	ModeHeadTrackerJoystick: "headtracker-joystick",
	ModeCameraOnly:          "camera",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a configuration name to a Mode.
func ParseMode(s string) (Mode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == want {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
}

// Movement decides when the cursor follows the trackers.
type Movement int

const (
	// MovementContinuous updates the cursor every tick.
	MovementContinuous Movement = iota
	// MovementHotkey updates the cursor only while the movement key is held.
	MovementHotkey
)

func (m Movement) String() string {
	switch m {
	case MovementContinuous:
		return "continuous"
	case MovementHotkey:
		return "hotkey"
	default:
		return fmt.Sprintf("Movement(%d)", int(m))
	}
}

// ParseMovement maps a configuration name to a Movement.
func ParseMovement(s string) (Movement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continuous":
		return MovementContinuous, nil
	case "hotkey":
		return MovementHotkey, nil
	default:
		return 0, fmt.Errorf("%w: unknown movement %q", ErrConfiguration, s)
	}
}

type fusion int

const (
	// fuseAbsolute applies precision to warp and positions the cursor.
	fuseAbsolute fusion = iota
	// fuseWarpOnly positions the cursor at the warp point.
	fuseWarpOnly
	// fuseJoystick moves the cursor relatively by the precision vector.
	fuseJoystick
)

type modeProfile struct {
	warp      pointer.WarpKind
	precision pointer.PrecisionKind
	fusion    fusion
	// alwaysReady modes need no warp readiness and begin Running.
	alwaysReady bool
	// camera modes toggle the external camera tracker around movement.
	camera bool
}

var modeProfiles = map[Mode]modeProfile{
	ModeGazeAndCamera:       {warp: pointer.WarpGaze, precision: pointer.PrecisionNone, fusion: fuseWarpOnly, alwaysReady: true, camera: true},
	ModeGazeAndHeadTracker:  {warp: pointer.WarpGaze, precision: pointer.PrecisionRotation, fusion: fuseAbsolute},
	ModeGazeAndSmartNav:     {warp: pointer.WarpGaze, precision: pointer.PrecisionNone, fusion: fuseWarpOnly, alwaysReady: true},
	ModeGazeOnly:            {warp: pointer.WarpGaze, precision: pointer.PrecisionGaze, fusion: fuseAbsolute},
	ModeHeadTrackerOnly:     {warp: pointer.WarpCentered, precision: pointer.PrecisionBoth, fusion: fuseAbsolute},
	ModeHeadTrackerJoystick: {warp: pointer.WarpNone, precision: pointer.PrecisionJoystick, fusion: fuseJoystick},
	ModeCameraOnly:          {warp: pointer.WarpNone, precision: pointer.PrecisionNone, fusion: fuseWarpOnly, alwaysReady: true, camera: true},
}

// State is the tracking lifecycle state.
type State int

const (
	StateStarting State = iota
	StateRunning
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
