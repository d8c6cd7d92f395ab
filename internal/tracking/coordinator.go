// Package tracking drives the cursor from the active pointer sources.
//
// A Coordinator owns one warp and one precision source at a time, fuses their
// output into a clamped target point and commits it to the OS cursor. It runs
// the Starting/Running/Paused/Error lifecycle that absorbs device start-up,
// hand movement of the mouse and tracker disconnects. Gestures turns click
// hotkey edges into clicks, double clicks and drags on the same cursor.
//
// Neither type is safe for concurrent use. Ticks, hotkey edges and mode
// changes are expected to arrive on one goroutine, which also makes a mode
// switch exclusive with respect to ticks.
package tracking

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
	"github.com/vedantwpatil/precision-mouse/internal/pointer"
)

// DefaultPauseCooldown is how long the observed cursor must stay still after
// a manual move before tracking resumes.
const DefaultPauseCooldown = time.Second

// Cursor is the OS pointer the coordinator and gestures drive.
type Cursor interface {
	SetPosition(p image.Point)
	MoveRelative(dx, dy int)
	ButtonDown()
	ButtonUp()
	Click()
}

// CameraToggle presses the start/stop hotkey of an external camera tracker.
type CameraToggle interface {
	Toggle() error
}

// SourceFactory builds pointer sources for a mode.
type SourceFactory interface {
	Warp(kind pointer.WarpKind) (pointer.Warp, error)
	Precision(kind pointer.PrecisionKind, sensitivity int) (pointer.Precision, error)
}

// Options configures a Coordinator.
type Options struct {
	Mode        Mode
	Movement    Movement
	Sensitivity int

	Sources SourceFactory
	Cursor  Cursor
	Screen  pointer.Screen
	// Camera is optional unless hotkey movement is used with a camera mode.
	Camera CameraToggle

	// PauseCooldown defaults to DefaultPauseCooldown.
	PauseCooldown time.Duration
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger *slog.Logger
}

// Coordinator is the cursor-control state machine.
type Coordinator struct {
	sources  SourceFactory
	cursor   Cursor
	screen   pointer.Screen
	camera   CameraToggle
	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mode        Mode
	profile     modeProfile
	movement    Movement
	sensitivity int
	warp        pointer.Warp
	prec        pointer.Precision

	state        State
	final        image.Point
	updatedOnce  bool
	movementDown bool
	pauseHeld    bool
	dragging     bool
	pausedAt     time.Time
	lastObserved image.Point
	stick        image.Point
}

// NewCoordinator validates opts and builds the sources for opts.Mode.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Sources == nil || opts.Cursor == nil || opts.Screen == nil {
		return nil, fmt.Errorf("%w: sources, cursor and screen are required", ErrConfiguration)
	}
	if _, ok := modeProfiles[opts.Mode]; !ok {
		return nil, fmt.Errorf("%w: unknown mode %v", ErrConfiguration, opts.Mode)
	}
	c := &Coordinator{
		sources:     opts.Sources,
		cursor:      opts.Cursor,
		screen:      opts.Screen,
		camera:      opts.Camera,
		cooldown:    opts.PauseCooldown,
		now:         opts.Clock,
		logger:      logging.OrDiscard(opts.Logger),
		mode:        opts.Mode,
		profile:     modeProfiles[opts.Mode],
		movement:    opts.Movement,
		sensitivity: opts.Sensitivity,
	}
	if c.cooldown <= 0 {
		c.cooldown = DefaultPauseCooldown
	}
	if c.now == nil {
		c.now = time.Now
	}
	if err := c.SetMode(opts.Mode); err != nil {
		return nil, err
	}
	return c, nil
}

// SetMode disposes the current sources and builds the pair for m. An invalid
// mode or mode/movement combination is rejected before anything is disposed.
func (c *Coordinator) SetMode(m Mode) error {
	profile, ok := modeProfiles[m]
	if !ok {
		return fmt.Errorf("%w: unknown mode %v", ErrConfiguration, m)
	}
	if err := c.checkPolicy(profile, c.movement); err != nil {
		return err
	}

	c.closeSources()

	warp, err := c.sources.Warp(profile.warp)
	if err != nil {
		c.setState(StateError)
		return fmt.Errorf("%w: mode %v: %w", ErrConfiguration, m, err)
	}
	prec, err := c.sources.Precision(profile.precision, c.sensitivity)
	if err != nil {
		if cerr := warp.Close(); cerr != nil {
			c.logger.Warn("close warp source", "error", cerr)
		}
		c.setState(StateError)
		return fmt.Errorf("%w: mode %v: %w", ErrConfiguration, m, err)
	}

	c.mode, c.profile = m, profile
	c.warp, c.prec = warp, prec
	c.updatedOnce = false
	c.movementDown = false

	next := StateStarting
	if profile.alwaysReady {
		next = StateRunning
	}
	switch {
	case !c.sourcesStarted():
		next = StateError
	case c.pauseHeld:
		c.hold()
		next = StatePaused
	}
	c.setState(next)
	c.logger.Info("tracking mode set",
		"mode", m.String(),
		"warp", profile.warp.String(),
		"precision", profile.precision.String(),
		"state", c.state.String())
	return nil
}

// SetMovement changes the movement policy.
func (c *Coordinator) SetMovement(m Movement) error {
	if err := c.checkPolicy(c.profile, m); err != nil {
		return err
	}
	c.movement = m
	c.updatedOnce = false
	return nil
}

// SetSensitivity forwards s to the active precision source and keeps it for
// sources built by later mode switches.
func (c *Coordinator) SetSensitivity(s int) {
	c.sensitivity = s
	if c.prec != nil {
		c.prec.SetSensitivity(s)
	}
}

func (c *Coordinator) checkPolicy(p modeProfile, m Movement) error {
	switch m {
	case MovementContinuous:
	case MovementHotkey:
		if p.camera && c.camera == nil {
			return fmt.Errorf("%w: hotkey movement with a camera tracker needs a camera toggle key", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown movement %v", ErrConfiguration, m)
	}
	return nil
}

// Update advances the state machine by one tick. observed is the cursor
// position the OS reports right now; it seeds the warp and is compared with
// the last committed point to detect a hand on the mouse.
func (c *Coordinator) Update(observed image.Point) {
	if c.warp == nil || c.prec == nil {
		return
	}
	if c.state != StateError && !c.sourcesStarted() {
		c.setState(StateError)
		return
	}

	switch c.state {
	case StateStarting:
		if c.warp.IsWarpReady() {
			c.final = observed
			c.setState(StateRunning)
		}
	case StateRunning:
		c.run(observed)
	case StatePaused:
		now := c.now()
		if observed != c.lastObserved {
			c.lastObserved = observed
			c.pausedAt = now
		}
		if !c.pauseHeld && now.Sub(c.pausedAt) >= c.cooldown {
			c.setState(StateStarting)
		}
	case StateError:
		if !c.sourcesStarted() {
			return
		}
		if c.pauseHeld {
			c.hold()
			c.setState(StatePaused)
			return
		}
		c.setState(StateStarting)
	}
}

// hold starts the pause cooldown from now.
func (c *Coordinator) hold() {
	c.pausedAt = c.now()
}

func (c *Coordinator) run(observed image.Point) {
	if c.movement == MovementHotkey && c.updatedOnce && !c.movementDown {
		return
	}
	warpPoint := c.warp.NextPoint(observed)

	switch c.profile.fusion {
	case fuseWarpOnly:
		c.commit(ClampToScreen(warpPoint, c.screen.Bounds()))
	case fuseJoystick:
		c.steer(warpPoint)
	case fuseAbsolute:
		if c.movement != MovementHotkey && observed != c.final {
			c.logger.Debug("cursor moved by hand",
				"observed", observed.String(),
				"final", c.final.String())
			c.hold()
			c.lastObserved = observed
			c.setState(StatePaused)
			return
		}
		c.commit(ClampToScreen(c.prec.NextPoint(warpPoint), c.screen.Bounds()))
	}
	c.updatedOnce = true
}

// steer sends the joystick vector as relative motion. Absolute axes move by
// the difference from the previous vector, which is zero on entry to Running;
// the others send the vector as is.
func (c *Coordinator) steer(warpPoint image.Point) {
	next := c.prec.NextPoint(warpPoint)
	absX, absY := false, false
	if r, ok := c.prec.(pointer.JoystickRouter); ok {
		absX, absY = r.JoystickAxes()
	}
	delta := next
	if absX {
		delta.X = next.X - c.stick.X
		c.stick.X = next.X
	}
	if absY {
		delta.Y = next.Y - c.stick.Y
		c.stick.Y = next.Y
	}
	if delta != (image.Point{}) {
		c.cursor.MoveRelative(delta.X, delta.Y)
	}
}

func (c *Coordinator) commit(p image.Point) {
	if p == c.final {
		return
	}
	c.final = p
	c.cursor.SetPosition(p)
}

// MovementKeyDown opens the movement gate. Under hotkey movement it also
// restarts tracking from a fresh warp. It is ignored while Paused or in Error.
func (c *Coordinator) MovementKeyDown() {
	if c.movementDown || c.halted() {
		return
	}
	c.movementDown = true
	if c.movement == MovementHotkey {
		c.activate(true)
	}
}

// MovementKeyUp closes the movement gate. Under hotkey movement a camera
// tracker started by MovementKeyDown is stopped again.
func (c *Coordinator) MovementKeyUp() {
	if !c.movementDown {
		return
	}
	c.movementDown = false
	if c.movement == MovementHotkey && c.profile.camera && !c.dragging && !c.halted() {
		c.toggleCamera()
	}
}

// PauseKeyDown toggles the manual pause. Turning it off restarts tracking.
func (c *Coordinator) PauseKeyDown() {
	if c.pauseHeld {
		c.pauseHeld = false
		c.logger.Info("tracking resumed")
		if c.state != StateError {
			c.activate(false)
		}
		return
	}
	c.pauseHeld = true
	c.logger.Info("tracking paused")
	if c.state == StateStarting || c.state == StateRunning {
		c.hold()
		c.setState(StatePaused)
	}
}

func (c *Coordinator) activate(camera bool) {
	if c.dragging || c.warp == nil {
		return
	}
	if camera && c.profile.camera {
		c.toggleCamera()
	}
	c.warp.RefreshTracking()
	c.updatedOnce = false
	c.setState(StateStarting)
}

func (c *Coordinator) toggleCamera() {
	if c.camera == nil {
		return
	}
	if err := c.camera.Toggle(); err != nil {
		c.logger.Warn("toggle camera tracker", "error", err)
	}
}

// Place moves the cursor to p and records it as the committed point, so the
// next tick does not read the move as a hand on the mouse.
func (c *Coordinator) Place(p image.Point) {
	c.final = p
	c.cursor.SetPosition(p)
}

// SetDragging records whether a drag holds the button down.
func (c *Coordinator) SetDragging(d bool) { c.dragging = d }

// Dragging reports whether a drag is in progress.
func (c *Coordinator) Dragging() bool { return c.dragging }

// MovementHeld reports whether the movement key is down.
func (c *Coordinator) MovementHeld() bool { return c.movementDown }

// PauseHeld reports whether the manual pause is on.
func (c *Coordinator) PauseHeld() bool { return c.pauseHeld }

// State returns the lifecycle state.
func (c *Coordinator) State() State { return c.state }

// Mode returns the active mode.
func (c *Coordinator) Mode() Mode { return c.mode }

// Movement returns the movement policy.
func (c *Coordinator) Movement() Movement { return c.movement }

// Sensitivity returns the precision gain.
func (c *Coordinator) Sensitivity() int { return c.sensitivity }

// FinalPoint returns the last committed cursor target.
func (c *Coordinator) FinalPoint() image.Point { return c.final }

// Status describes the state for display.
func (c *Coordinator) Status() string {
	switch c.state {
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateError:
		if c.warp != nil && !c.warp.IsStarted() {
			return "No gaze tracker connection"
		}
		if c.prec != nil && !c.prec.IsStarted() {
			return "No head tracker connection"
		}
		return "Error"
	}
	return ""
}

// Sample returns the precision source's reading for display, if it has one.
func (c *Coordinator) Sample() string {
	if s, ok := c.prec.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

// Err explains the Error state. It is nil in every other state.
func (c *Coordinator) Err() error {
	if c.state != StateError {
		return nil
	}
	var errs []error
	if c.warp == nil || !c.warp.IsStarted() {
		errs = append(errs, fmt.Errorf("%w: %v warp", ErrDeviceUnavailable, c.profile.warp))
	}
	if c.prec == nil || !c.prec.IsStarted() {
		errs = append(errs, fmt.Errorf("%w: %v precision", ErrDeviceUnavailable, c.profile.precision))
	}
	if len(errs) == 0 {
		return ErrDeviceUnavailable
	}
	return errors.Join(errs...)
}

// Close releases the active sources.
func (c *Coordinator) Close() error {
	return c.closeSources()
}

func (c *Coordinator) closeSources() error {
	var errs []error
	if c.warp != nil {
		errs = append(errs, c.warp.Close())
		c.warp = nil
	}
	if c.prec != nil {
		errs = append(errs, c.prec.Close())
		c.prec = nil
	}
	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warn("close pointer sources", "error", err)
	}
	return err
}

func (c *Coordinator) halted() bool {
	return c.state == StateError || c.state == StatePaused
}

func (c *Coordinator) sourcesStarted() bool {
	return c.warp != nil && c.prec != nil && c.warp.IsStarted() && c.prec.IsStarted()
}

func (c *Coordinator) setState(s State) {
	if s == c.state {
		return
	}
	c.logger.Debug("tracking state", "from", c.state.String(), "to", s.String())
	if s == StateRunning {
		c.stick = image.Point{}
	}
	c.state = s
}
