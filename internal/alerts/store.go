// Package alerts reconciles the periodically polled alert list with the
// operator-visible feed and the evidence detail view.
package alerts

import (
	"sync"

	"github.com/halvden/surveillance-ai/dashboard-client/internal/logger"
	"github.com/halvden/surveillance-ai/dashboard-client/pkg/types"
)

// Store holds the displayed alert sequence and the current selection.
// The sequence is in arrival order, newest appended last. At most one
// alert is selected, and the selection is always a member of the current
// sequence; alerts carry no server id, so membership is value equality.
type Store struct {
	mu          sync.Mutex
	alerts      []types.Alert
	selected    types.Alert
	hasSelected bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// SetAlerts replaces the displayed sequence wholesale. The replacement is
// atomic from a reader's perspective. If the selected alert is no longer
// present the selection is cleared.
func (s *Store) SetAlerts(seq []types.Alert) {
	snapshot := make([]types.Alert, len(seq))
	copy(snapshot, seq)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = snapshot
	if s.hasSelected && !containsAlert(snapshot, s.selected) {
		logger.Debug("AlertStore", "selected alert dropped from feed, clearing selection")
		s.hasSelected = false
		s.selected = types.Alert{}
	}
}

// Select marks an alert for the detail view. Alerts without evidence are
// not selectable, and an alert that is not in the displayed sequence is
// ignored; both cases are silent no-ops the UI itself should prevent.
func (s *Store) Select(a types.Alert) {
	if !a.HasEvidence() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsAlert(s.alerts, a) {
		return
	}
	s.selected = a
	s.hasSelected = true
}

// ClearSelection dismisses the detail view. Idempotent.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasSelected = false
	s.selected = types.Alert{}
}

// Selected returns the alert under inspection, if any.
func (s *Store) Selected() (types.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.hasSelected
}

// Snapshot returns a copy of the displayed sequence.
func (s *Store) Snapshot() []types.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Len returns the number of displayed alerts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func containsAlert(seq []types.Alert, a types.Alert) bool {
	for _, x := range seq {
		if x == a {
			return true
		}
	}
	return false
}
