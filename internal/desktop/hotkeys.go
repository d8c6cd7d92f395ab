package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	hook "github.com/robotn/gohook"

	"github.com/vedantwpatil/precision-mouse/internal/logging"
	"github.com/vedantwpatil/precision-mouse/internal/tracking"
)

var (
	ErrUnknownKey   = errors.New("unknown key name")
	ErrDuplicateKey = errors.New("key bound twice")
)

// Bindings names the key for each hotkey, using gohook key names such as
// "f9", "space" or "q".
type Bindings struct {
	Movement string
	Click    string
	Pause    string
}

// Keymap turns raw keyboard hook events into hotkey edges. Auto-repeat and
// releases of keys that were never seen going down are dropped.
type Keymap struct {
	codes map[uint16]tracking.Hotkey
	held  map[tracking.Hotkey]bool
}

// NewKeymap resolves the bound key names.
func NewKeymap(b Bindings) (*Keymap, error) {
	m := &Keymap{
		codes: make(map[uint16]tracking.Hotkey),
		held:  make(map[tracking.Hotkey]bool),
	}
	for _, bind := range []struct {
		key  tracking.Hotkey
		name string
	}{
		{tracking.HotkeyMovement, b.Movement},
		{tracking.HotkeyClick, b.Click},
		{tracking.HotkeyPause, b.Pause},
	} {
		code, ok := hook.Keycode[strings.ToLower(strings.TrimSpace(bind.name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q for the %v key", ErrUnknownKey, bind.name, bind.key)
		}
		if other, dup := m.codes[code]; dup {
			return nil, fmt.Errorf("%w: %q is both the %v and the %v key", ErrDuplicateKey, bind.name, other, bind.key)
		}
		m.codes[code] = bind.key
	}
	return m, nil
}

// Translate maps one hook event to a hotkey edge.
func (m *Keymap) Translate(ev hook.Event) (tracking.KeyEdge, bool) {
	var down bool
	switch ev.Kind {
	case hook.KeyHold:
		down = true
	case hook.KeyUp:
	default:
		return tracking.KeyEdge{}, false
	}
	key, ok := m.codes[ev.Keycode]
	if !ok || m.held[key] == down {
		return tracking.KeyEdge{}, false
	}
	m.held[key] = down
	return tracking.KeyEdge{Key: key, Down: down, At: ev.When}, true
}

// ListenHotkeys starts the global keyboard hook and sends hotkey edges until
// ctx is done. The hook is process-wide, so only one listener may run.
func ListenHotkeys(ctx context.Context, m *Keymap, logger *slog.Logger) <-chan tracking.KeyEdge {
	logger = logging.OrDiscard(logger)
	out := make(chan tracking.KeyEdge, 16)
	events := hook.Start()
	logger.Info("hotkey listener started")

	go func() {
		defer close(out)
		defer func() {
			hook.End()
			logger.Info("hotkey listener stopped")
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				edge, ok := m.Translate(ev)
				if !ok {
					continue
				}
				if edge.At.IsZero() {
					edge.At = time.Now()
				}
				logger.Debug("hotkey", "key", edge.Key.String(), "down", edge.Down)
				select {
				case out <- edge:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
