package pointer

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/gaze"
	"github.com/vedantwpatil/precision-mouse/internal/headtracker"
	"github.com/vedantwpatil/precision-mouse/internal/logging"
)

// ErrUnknownKind is returned for a kind outside the closed variant set.
var ErrUnknownKind = errors.New("unknown pointer kind")

// Factory builds pointer variants against the configured devices.
type Factory struct {
	Screen Screen
	// Gaze is shared by every gaze-driven variant. Nil means no gaze tracker.
	Gaze gaze.Stream
	// HeadTracker returns a fresh client for each head-driven variant. Nil
	// means no head tracker.
	HeadTracker func() headtracker.Client

	PollInterval  time.Duration
	WarpSamples   int
	WarpThreshold int
	Smoothing     int

	JoystickAbsoluteX bool
	JoystickAbsoluteY bool

	Logger *slog.Logger
}

// Warp builds the warp variant for kind.
func (f *Factory) Warp(kind WarpKind) (Warp, error) {
	switch kind {
	case WarpNone:
		return identityWarp{}, nil
	case WarpCentered:
		return newCenteredWarp(f.Screen), nil
	case WarpGaze:
		return NewGazeWarp(f.gazeStream(), f.WarpSamples, f.WarpThreshold), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
}

// Precision builds the precision variant for kind.
func (f *Factory) Precision(kind PrecisionKind, sensitivity int) (Precision, error) {
	switch {
	case kind == PrecisionNone:
		return &noPrecision{sensitivity: sensitivity}, nil
	case kind == PrecisionGaze:
		return NewGazePrecision(f.gazeStream(), f.Smoothing, sensitivity), nil
	case kind.head():
		return &HeadPrecision{
			kind:        kind,
			screen:      f.Screen,
			sensitivity: sensitivity,
			absX:        f.JoystickAbsoluteX,
			absY:        f.JoystickAbsoluteY,
			poll:        startPoller(f.headClient(), f.PollInterval, logging.OrDiscard(f.Logger)),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
}

func (f *Factory) gazeStream() gaze.Stream {
	if f.Gaze == nil {
		return offlineGaze{}
	}
	return f.Gaze
}

func (f *Factory) headClient() headtracker.Client {
	if f.HeadTracker == nil {
		return missingHead{}
	}
	return f.HeadTracker()
}

type offlineGaze struct{}

func (offlineGaze) Latest() (gaze.Sample, bool) { return gaze.Sample{}, false }
func (offlineGaze) Connected() bool             { return false }

var errNoHeadTracker = errors.New("no head tracker configured")

type missingHead struct{}

func (missingHead) Open() error                     { return errNoHeadTracker }
func (missingHead) Read() (headtracker.Pose, error) { return headtracker.Pose{}, headtracker.ErrNotOpen }
func (missingHead) Close() error                    { return nil }
