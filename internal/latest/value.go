// Package latest holds the most recent sample produced by a device goroutine.
//
// A Value never queues: each Store overwrites the previous sample and Load
// returns whatever was written last. Readers accept bounded staleness in
// exchange for never blocking.
package latest

import "sync/atomic"

// Value is a single-slot, overwrite-on-write holder safe for one writer and
// any number of readers. The zero value is empty and ready to use.
type Value[T any] struct {
	slot atomic.Pointer[T]
}

// Store replaces the held sample.
func (s *Value[T]) Store(v T) {
	s.slot.Store(&v)
}

// Load returns the last stored sample and whether one was ever stored.
func (s *Value[T]) Load() (T, bool) {
	p := s.slot.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Reset empties the slot.
func (s *Value[T]) Reset() {
	s.slot.Store(nil)
}
