// internal/session/registry.go
package session

import (
	"sync"

	"go.uber.org/zap"
)

// Registry maps user ids to their sessions. Sessions are created lazily on
// first contact and live for the process lifetime; creation is atomic, so
// concurrent first-contact from the same user yields exactly one session.
type Registry struct {
	mu           sync.Mutex
	sessions     map[int64]*Session
	startBalance float64
	logger       *zap.Logger
}

// NewRegistry creates a registry funding new sessions with startBalance SOL.
func NewRegistry(startBalance float64, logger *zap.Logger) *Registry {
	return &Registry{
		sessions:     make(map[int64]*Session),
		startBalance: startBalance,
		logger:       logger.Named("sessions"),
	}
}

// GetOrCreate returns the user's session, creating it on first contact.
// The second result reports whether the session was created by this call.
func (r *Registry) GetOrCreate(userID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s, false
	}

	s := newSession(userID, r.startBalance)
	r.sessions[userID] = s

	r.logger.Info("💳 New paper wallet funded",
		zap.Int64("user_id", userID),
		zap.Float64("start_balance", r.startBalance))

	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
