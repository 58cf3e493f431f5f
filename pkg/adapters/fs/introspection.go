package fs

import (
	"fmt"
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Codec    string     `json:"codec"`
	FileMode string     `json:"file_mode"`
	Saves    int        `json:"saves"`
	Watchers int        `json:"watchers"`
	LastLoad *time.Time `json:"last_load,omitempty"`
	LastSave *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreState{
		Codec:    fmt.Sprintf("%T", s.config.Codec),
		FileMode: s.config.FileMode.String(),
		Saves:    s.saves,
		Watchers: s.watchers,
		LastLoad: s.lastLoad,
		LastSave: s.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)

// AutosaverState exposes the autosave loop for observability.
type AutosaverState struct {
	Interval  string     `json:"interval"`
	Running   bool       `json:"running"`
	Pending   bool       `json:"pending"`
	Saves     int        `json:"saves"`
	Skips     int        `json:"skips"`
	LastSave  *time.Time `json:"last_save,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (a *Autosaver) State() any {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := AutosaverState{
		Interval: a.interval.String(),
		Running:  a.running,
		Pending:  a.pending.Load(),
		Saves:    a.saves,
		Skips:    a.skips,
		LastSave: a.lastSave,
	}
	if a.lastErr != nil {
		st.LastError = a.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (a *Autosaver) ComponentType() string {
	return "autosaver"
}

var _ introspection.Introspectable = (*Autosaver)(nil)
var _ introspection.Component = (*Autosaver)(nil)
