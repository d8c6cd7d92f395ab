package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedantwpatil/precision-mouse/internal/config"
	"github.com/vedantwpatil/precision-mouse/internal/desktop"
	"github.com/vedantwpatil/precision-mouse/internal/gaze"
	"github.com/vedantwpatil/precision-mouse/internal/headtracker"
	"github.com/vedantwpatil/precision-mouse/internal/logging"
	"github.com/vedantwpatil/precision-mouse/internal/pointer"
	"github.com/vedantwpatil/precision-mouse/internal/session"
	"github.com/vedantwpatil/precision-mouse/internal/tracking"
)

type Application struct {
	config     *config.Config
	configPath string
	fixedMode  bool
	logger     *slog.Logger
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewApplication loads the configuration. A missing file is only an error
// when the path was given explicitly.
func NewApplication(path string, explicit bool, mode string) (*Application, error) {
	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		cfg = config.NewConfig()
	default:
		return nil, err
	}
	if mode != "" {
		cfg.Mode = mode
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		config:     cfg,
		configPath: path,
		fixedMode:  mode != "",
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (app *Application) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go app.handleSignals(sigChan)

	cfg := app.config
	mode, err := cfg.TrackingMode()
	if err != nil {
		return err
	}
	movement, err := cfg.TrackingMovement()
	if err != nil {
		return err
	}

	gazeSource := gaze.NewUDPSource(cfg.Gaze.Listen, app.logger)
	if err := gazeSource.Open(); err != nil {
		app.logger.Warn("gaze tracker unavailable", "listen", cfg.Gaze.Listen, "error", err)
	}
	defer gazeSource.Close()

	display := desktop.NewDisplay(cfg.Display, app.logger)
	cursor := desktop.Cursor{}

	var camera tracking.CameraToggle
	if cfg.Hotkeys.Camera != "" {
		camera = desktop.CameraKey{Key: cfg.Hotkeys.Camera}
	}

	coord, err := tracking.NewCoordinator(tracking.Options{
		Mode:        mode,
		Movement:    movement,
		Sensitivity: cfg.Sensitivity,
		Sources: &pointer.Factory{
			Screen:            display,
			Gaze:              gazeSource,
			HeadTracker:       app.headTracker(),
			PollInterval:      cfg.PollInterval(),
			WarpSamples:       cfg.Gaze.WarpSamples,
			WarpThreshold:     cfg.Gaze.WarpThreshold,
			Smoothing:         cfg.Gaze.Smoothing,
			JoystickAbsoluteX: cfg.HeadTracker.JoystickAbsoluteX,
			JoystickAbsoluteY: cfg.HeadTracker.JoystickAbsoluteY,
			Logger:            app.logger,
		},
		Cursor:        cursor,
		Screen:        display,
		Camera:        camera,
		PauseCooldown: cfg.PauseCooldown(),
		Logger:        app.logger,
	})
	if err != nil {
		return err
	}
	defer coord.Close()

	gestures := tracking.NewGestures(coord, cursor, tracking.GestureOptions{
		DragWindow:        cfg.DragWindow(),
		DoubleClickWindow: cfg.DoubleClickWindow(),
		Logger:            app.logger,
	})

	keymap, err := desktop.NewKeymap(desktop.Bindings{
		Movement: cfg.Hotkeys.Movement,
		Click:    cfg.Hotkeys.Click,
		Pause:    cfg.Hotkeys.Pause,
	})
	if err != nil {
		return err
	}
	keys := desktop.ListenHotkeys(app.ctx, keymap, app.logger)

	reloads, err := config.Watch(app.ctx, app.configPath, app.logger)
	if err != nil {
		app.logger.Warn("config reload disabled", "path", app.configPath, "error", err)
	}

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	app.logger.Info("tracking",
		"mode", mode.String(),
		"movement", movement.String(),
		"frame_rate", cfg.FrameRate)

	loop := &session.Loop{
		Tracker:  coord,
		Gestures: gestures,
		Pointer:  cursor,
		Ticks:    ticker.C,
		Keys:     keys,
		Reloads:  reloads,
		Logger:   app.logger,

		FixedMode: app.fixedMode,
	}
	return loop.Run(app.ctx)
}

func (app *Application) headTracker() func() headtracker.Client {
	ht := app.config.HeadTracker
	switch ht.Driver {
	case "serial":
		return func() headtracker.Client {
			return headtracker.NewSerialClient(ht.Port, ht.BaudRate, headtracker.WithSerialLogger(app.logger))
		}
	case "udp":
		return func() headtracker.Client {
			return headtracker.NewUDPClient(ht.Listen, app.logger)
		}
	default:
		return nil
	}
}

func (app *Application) handleSignals(sigChan chan os.Signal) {
	select {
	case sig := <-sigChan:
		app.logger.Info("shutting down", "signal", sig.String())
		app.cancel()
	case <-app.ctx.Done():
	}
}

func main() {
	configPath := flag.String("config", "", "path to the TOML config file")
	mode := flag.String("mode", "", "tracking mode to use instead of the config file's, kept across reloads")
	flag.Parse()

	path, explicit := *configPath, *configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}

	app, err := NewApplication(path, explicit, *mode)
	if err != nil {
		log.Fatalf("Application error: %v", err)
	}
	err = app.Run()
	app.cancel()
	if err != nil {
		app.logger.Error("application error", "error", err)
		os.Exit(1)
	}
}
