package tracking

import "errors"

var (
	// ErrConfiguration marks a mode, movement or collaborator setup that
	// cannot work. It is returned when the setting is applied, never deferred.
	ErrConfiguration = errors.New("invalid tracking configuration")

	// ErrDeviceUnavailable marks a pointer source whose device is not
	// connected. The coordinator keeps polling and recovers on its own.
	ErrDeviceUnavailable = errors.New("tracking device unavailable")
)
