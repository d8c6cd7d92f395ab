package tracking

import (
	"fmt"
	"time"
)

// Hotkey names one of the bound control keys.
type Hotkey int

const (
	HotkeyMovement Hotkey = iota
	HotkeyClick
	HotkeyPause
)

func (k Hotkey) String() string {
	switch k {
	case HotkeyMovement:
		return "movement"
	case HotkeyClick:
		return "click"
	case HotkeyPause:
		return "pause"
	default:
		return fmt.Sprintf("Hotkey(%d)", int(k))
	}
}

// KeyEdge is a press or release of a hotkey.
type KeyEdge struct {
	Key  Hotkey
	Down bool
	At   time.Time
}
