package session

import (
	"slices"
)

// Interaction events that count as user activity
var ActivityEvents = []string{"mousedown", "mousemove", "keypress", "scroll", "touchstart"}

// TrackActivity stamps LastActivity of every populated slot and persists it.
// The stamp is informational and never affects session validity.
// Returns false for unknown events or when nobody is logged in.
func (m *Manager) TrackActivity(event string) bool {
	if !slices.Contains(ActivityEvents, event) {
		return false
	}

	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	stamped := false
	for slot, id := range m.identities {
		id.User.LastActivity = &now
		m.setIdentityLocked(slot, id)
		stamped = true
	}
	return stamped
}
