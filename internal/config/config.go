// Package config loads the tracker settings from a TOML file and watches it
// for edits.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
	"github.com/vedantwpatil/precision-mouse/internal/tracking"
)

// ErrInvalid marks a configuration that failed validation.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Mode        string `toml:"mode"`
	Movement    string `toml:"movement"`
	Sensitivity int    `toml:"sensitivity"`
	FrameRate   int    `toml:"frame_rate"`
	Display     int    `toml:"display"`

	Hotkeys struct {
		Movement string `toml:"movement"`
		Click    string `toml:"click"`
		Pause    string `toml:"pause"`
		// Camera is tapped to start and stop an external camera tracker.
		Camera string `toml:"camera"`
	} `toml:"hotkeys"`

	Gaze struct {
		Listen        string `toml:"listen"`
		WarpThreshold int    `toml:"warp_threshold"`
		WarpSamples   int    `toml:"warp_samples"`
		Smoothing     int    `toml:"smoothing"`
	} `toml:"gaze"`

	HeadTracker struct {
		// Driver is "serial", "udp" or empty for none.
		Driver            string `toml:"driver"`
		Port              string `toml:"port"`
		BaudRate          int    `toml:"baud_rate"`
		Listen            string `toml:"listen"`
		PollIntervalMS    int    `toml:"poll_interval_ms"`
		JoystickAbsoluteX bool   `toml:"joystick_absolute_x"`
		JoystickAbsoluteY bool   `toml:"joystick_absolute_y"`
	} `toml:"head_tracker"`

	Gestures struct {
		DragWindowMS        int `toml:"drag_window_ms"`
		DoubleClickWindowMS int `toml:"double_click_window_ms"`
	} `toml:"gestures"`

	Pause struct {
		CooldownMS int `toml:"cooldown_ms"`
	} `toml:"pause"`

	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
}

func NewConfig() *Config {
	c := &Config{
		Mode:        tracking.ModeGazeAndHeadTracker.String(),
		Movement:    tracking.MovementContinuous.String(),
		Sensitivity: 10,
		FrameRate:   60,
	}

	c.Hotkeys.Movement = "f6"
	c.Hotkeys.Click = "f7"
	c.Hotkeys.Pause = "f8"
	c.Hotkeys.Camera = "f12"

	c.Gaze.Listen = "127.0.0.1:5555"
	c.Gaze.WarpThreshold = 200
	c.Gaze.WarpSamples = 10
	c.Gaze.Smoothing = 5

	c.HeadTracker.Driver = "udp"
	c.HeadTracker.BaudRate = 115200
	c.HeadTracker.Listen = "127.0.0.1:4242"
	c.HeadTracker.PollIntervalMS = 33

	c.Gestures.DragWindowMS = 250
	c.Gestures.DoubleClickWindowMS = 500

	c.Pause.CooldownMS = 1000

	c.Logging.Level = "info"
	c.Logging.Format = "text"
	return c
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if _, err := tracking.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := tracking.ParseMovement(c.Movement); err != nil {
		errs = append(errs, err)
	}
	if c.Sensitivity < 0 || c.Sensitivity > 100 {
		add("sensitivity %d outside 0..100", c.Sensitivity)
	}
	if c.FrameRate < 1 || c.FrameRate > 240 {
		add("frame_rate %d outside 1..240", c.FrameRate)
	}
	if c.Display < 0 {
		add("display %d is negative", c.Display)
	}

	seen := map[string]string{}
	for _, k := range []struct{ name, key string }{
		{"movement", c.Hotkeys.Movement},
		{"click", c.Hotkeys.Click},
		{"pause", c.Hotkeys.Pause},
	} {
		key := strings.ToLower(strings.TrimSpace(k.key))
		if key == "" {
			add("hotkeys.%s is empty", k.name)
			continue
		}
		if other, dup := seen[key]; dup {
			add("hotkeys.%s and hotkeys.%s are both %q", other, k.name, key)
		}
		seen[key] = k.name
	}

	if c.Gaze.WarpSamples < 1 {
		add("gaze.warp_samples must be at least 1")
	}
	if c.Gaze.Smoothing < 1 {
		add("gaze.smoothing must be at least 1")
	}
	if c.Gaze.WarpThreshold < 0 {
		add("gaze.warp_threshold is negative")
	}

	switch c.HeadTracker.Driver {
	case "", "udp":
	case "serial":
		if c.HeadTracker.Port == "" {
			add("head_tracker.port is required for the serial driver")
		}
		if c.HeadTracker.BaudRate <= 0 {
			add("head_tracker.baud_rate must be positive")
		}
	default:
		add("unknown head_tracker.driver %q", c.HeadTracker.Driver)
	}
	if c.HeadTracker.PollIntervalMS < 1 {
		add("head_tracker.poll_interval_ms must be at least 1")
	}

	if c.Gestures.DragWindowMS < 1 || c.Gestures.DoubleClickWindowMS < 1 {
		add("gesture windows must be positive")
	}
	if c.Pause.CooldownMS < 1 {
		add("pause.cooldown_ms must be positive")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level: %v", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "console", "json":
	default:
		add("unknown logging.format %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}

// TrackingMode returns the parsed mode.
func (c *Config) TrackingMode() (tracking.Mode, error) { return tracking.ParseMode(c.Mode) }

// TrackingMovement returns the parsed movement policy.
func (c *Config) TrackingMovement() (tracking.Movement, error) {
	return tracking.ParseMovement(c.Movement)
}

// TickInterval is the time between coordinator ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(max(c.FrameRate, 1))
}

// PollInterval is how often the head tracker is sampled.
func (c *Config) PollInterval() time.Duration {
	return ms(c.HeadTracker.PollIntervalMS)
}

func (c *Config) DragWindow() time.Duration {
	return ms(c.Gestures.DragWindowMS)
}

func (c *Config) DoubleClickWindow() time.Duration {
	return ms(c.Gestures.DoubleClickWindowMS)
}

func (c *Config) PauseCooldown() time.Duration {
	return ms(c.Pause.CooldownMS)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
