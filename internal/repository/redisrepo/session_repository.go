package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/repository/contract"
	"kb-assistant-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "kb:session:"

// sessionRepository persists dialog sessions in Redis so the assistant
// can run more than one instance behind a balancer. Redis errors are
// logged and treated as a cache miss: the dialog restarts instead of
// failing the request.
type sessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.ILogger
}

func NewSessionRepository(client *redis.Client, ttl time.Duration, log logger.ILogger) contract.SessionRepository {
	return &sessionRepository{client: client, ttl: ttl, log: log}
}

func (r *sessionRepository) Save(session *store.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		r.log.Error("session_repository", "failed to marshal session", map[string]interface{}{"user_id": session.UserID, "error": err.Error()})
		return
	}
	if err := r.client.Set(context.Background(), sessionKeyPrefix+session.UserID, data, r.ttl).Err(); err != nil {
		r.log.Error("session_repository", "failed to save session", map[string]interface{}{"user_id": session.UserID, "error": err.Error()})
	}
}

func (r *sessionRepository) Get(userID string) (*store.Session, bool) {
	data, err := r.client.Get(context.Background(), sessionKeyPrefix+userID).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		r.log.Error("session_repository", "failed to load session", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return nil, false
	}
	var session store.Session
	if err := json.Unmarshal(data, &session); err != nil {
		r.log.Error("session_repository", "corrupt session payload", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return nil, false
	}
	return &session, true
}

func (r *sessionRepository) Delete(userID string) {
	if err := r.client.Del(context.Background(), sessionKeyPrefix+userID).Err(); err != nil {
		r.log.Error("session_repository", "failed to delete session", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
}
