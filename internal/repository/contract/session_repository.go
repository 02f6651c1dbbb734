package contract

import "kb-assistant-be/pkg/store"

// SessionRepository stores per-user conversation sessions. Implementations
// evict idle sessions via TTL; callers treat a miss as "first contact".
type SessionRepository interface {
	Save(session *store.Session)
	Get(userID string) (*store.Session, bool)
	Delete(userID string)
}
