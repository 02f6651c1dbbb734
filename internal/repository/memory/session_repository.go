package memory

import (
	"time"

	"kb-assistant-be/internal/repository/contract"
	"kb-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// sessionRepository keeps dialog sessions in process memory with a TTL.
// An evicted session is indistinguishable from one that never existed,
// which is how idle dialogs expire.
type sessionRepository struct {
	sessions *cache.Cache
}

func NewSessionRepository(ttl time.Duration) contract.SessionRepository {
	return &sessionRepository{
		sessions: cache.New(ttl, 10*time.Minute),
	}
}

func (r *sessionRepository) Save(session *store.Session) {
	r.sessions.SetDefault(session.UserID, session)
}

func (r *sessionRepository) Get(userID string) (*store.Session, bool) {
	v, found := r.sessions.Get(userID)
	if !found {
		return nil, false
	}
	return v.(*store.Session), true
}

func (r *sessionRepository) Delete(userID string) {
	r.sessions.Delete(userID)
}
