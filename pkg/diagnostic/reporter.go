// Package diagnostic collects export progress, messages and non-fatal errors.
//
// The exporter never returns errors across phase boundaries; everything surfaces
// through a Reporter, and callers inspect the accumulated errors even when the run
// completed.
package diagnostic

import (
	"strings"
	"sync"

	"github.com/gdexport/gdexport/pkg/types"
)

// Reporter receives the progress of an export run
type Reporter interface {
	OnMessage(text, detail string)
	OnPercentUpdate(percent float64)
	AddError(text string)
	OnCompilationFailed()
	OnCompilationSucceeded()
	GetErrors() string
}

// State is the in-memory diagnostic state of one run. It implements Reporter and is
// embedded by the other reporters.
type State struct {
	mu      sync.RWMutex
	errors  []string
	percent float64
	outcome types.ExportStatus
}

// NewState creates an empty diagnostic state
func NewState() *State {
	return &State{outcome: types.ExportStatusPending}
}

// OnMessage implements Reporter; State keeps no message history
func (s *State) OnMessage(text, detail string) {}

// OnPercentUpdate records progress, clamped to [0, 100]. Lower values than the
// last recorded one are ignored.
func (s *State) OnPercentUpdate(percent float64) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if percent > s.percent {
		s.percent = percent
	}
}

// AddError appends an error message
func (s *State) AddError(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, strings.TrimRight(text, "\n"))
}

// OnCompilationFailed marks the run as failed
func (s *State) OnCompilationFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = types.ExportStatusFailed
}

// OnCompilationSucceeded marks the run as completed
func (s *State) OnCompilationSucceeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = types.ExportStatusSucceeded
}

// GetErrors returns every error message, one per line
func (s *State) GetErrors() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.errors) == 0 {
		return ""
	}
	return strings.Join(s.errors, "\n") + "\n"
}

// Errors returns a copy of the accumulated error messages
func (s *State) Errors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.errors))
	copy(out, s.errors)
	return out
}

// Percent returns the last recorded progress
func (s *State) Percent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.percent
}

// Outcome returns the terminal state of the run, or pending while it runs
func (s *State) Outcome() types.ExportStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.outcome == "" {
		return types.ExportStatusPending
	}
	return s.outcome
}
