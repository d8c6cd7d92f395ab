// Package session runs the event loop that owns the tracking coordinator.
//
// Ticks, hotkey edges and configuration reloads arrive on separate channels
// but are handled one at a time on the loop goroutine, so the coordinator and
// gesture interpreter never see concurrent calls and a mode switch can never
// overlap a tick.
package session

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/config"
	"github.com/vedantwpatil/precision-mouse/internal/logging"
	"github.com/vedantwpatil/precision-mouse/internal/tracking"
)

// Tracker is the coordinator as the loop drives it.
type Tracker interface {
	Update(observed image.Point)
	MovementKeyDown()
	MovementKeyUp()
	PauseKeyDown()

	SetMode(m tracking.Mode) error
	SetMovement(m tracking.Movement) error
	SetSensitivity(s int)
	Mode() tracking.Mode
	Movement() tracking.Movement
	Sensitivity() int

	Status() string
	Sample() string
	Err() error
}

// Clicker interprets click key edges.
type Clicker interface {
	ClickKeyDown(at time.Time)
	ClickKeyUp(at time.Time, pos image.Point)
}

// Pointer reports where the OS cursor is.
type Pointer interface {
	Position() image.Point
}

// Loop wires the inputs to the tracker. Nil channels are never ready, so any
// input can be left out.
type Loop struct {
	Tracker  Tracker
	Gestures Clicker
	Pointer  Pointer

	Ticks   <-chan time.Time
	Keys    <-chan tracking.KeyEdge
	Reloads <-chan *config.Config

	// FixedMode keeps the tracker's mode when a reload names another one.
	FixedMode bool

	Logger *slog.Logger

	status string
}

// Run handles events until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	logger := logging.OrDiscard(l.Logger)
	keys, reloads := l.Keys, l.Reloads
	l.reportStatus(logger)

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-l.Ticks:
			if !ok {
				return nil
			}
			l.Tracker.Update(l.Pointer.Position())
			l.reportStatus(logger)

		case edge, ok := <-keys:
			if !ok {
				logger.Warn("hotkey input closed")
				keys = nil
				continue
			}
			l.handleKey(edge)
			l.reportStatus(logger)

		case c, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			l.apply(c, logger)
			l.reportStatus(logger)
		}
	}
}

func (l *Loop) handleKey(edge tracking.KeyEdge) {
	switch edge.Key {
	case tracking.HotkeyMovement:
		if edge.Down {
			l.Tracker.MovementKeyDown()
		} else {
			l.Tracker.MovementKeyUp()
		}
	case tracking.HotkeyClick:
		if l.Gestures == nil {
			return
		}
		if edge.Down {
			l.Gestures.ClickKeyDown(edge.At)
		} else {
			l.Gestures.ClickKeyUp(edge.At, l.Pointer.Position())
		}
	case tracking.HotkeyPause:
		if edge.Down {
			l.Tracker.PauseKeyDown()
		}
	}
}

// apply takes over the settings that can change without restarting. A mode
// change rebuilds the pointer sources, so it is only done when the mode
// actually differs.
func (l *Loop) apply(c *config.Config, logger *slog.Logger) {
	if mode, err := c.TrackingMode(); err != nil {
		logger.Warn("reload mode", "error", err)
	} else if mode != l.Tracker.Mode() && l.FixedMode {
		logger.Info("mode change ignored, mode fixed on the command line", "mode", mode.String())
	} else if mode != l.Tracker.Mode() {
		if err := l.Tracker.SetMode(mode); err != nil {
			logger.Warn("reload mode", "mode", mode.String(), "error", err)
		} else {
			logger.Info("mode changed", "mode", mode.String())
		}
	}

	if movement, err := c.TrackingMovement(); err != nil {
		logger.Warn("reload movement", "error", err)
	} else if movement != l.Tracker.Movement() {
		if err := l.Tracker.SetMovement(movement); err != nil {
			logger.Warn("reload movement", "movement", movement.String(), "error", err)
		} else {
			logger.Info("movement changed", "movement", movement.String())
		}
	}

	if c.Sensitivity != l.Tracker.Sensitivity() {
		l.Tracker.SetSensitivity(c.Sensitivity)
		logger.Info("sensitivity changed", "sensitivity", c.Sensitivity)
	}
}

func (l *Loop) reportStatus(logger *slog.Logger) {
	s := l.Tracker.Status()
	if s == l.status {
		return
	}
	l.status = s
	if err := l.Tracker.Err(); err != nil {
		logger.Warn("tracking status", "status", s, "error", err)
		return
	}
	logger.Info("tracking status", "status", s, "sample", l.Tracker.Sample())
}
