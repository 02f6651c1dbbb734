package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// clusterChannel carries cross-instance reply deliveries when more than
// one instance runs behind a balancer.
const clusterChannel = "kb_cluster_events"

// Hub tracks websocket clients per chat user and fans bot replies out to
// every device the user has connected. With Redis configured, deliveries
// are also published cluster-wide so the instance holding the socket
// forwards them.
type Hub struct {
	// user id -> connected clients (multi-device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// nil when running single-instance
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    map[string][]*Client{},
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("hub", "client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
					h.logger.Info("hub", "last client unregistered", map[string]interface{}{"user_id": client.UserID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Deliver pushes a batch of render instructions to every socket the user
// holds, locally and (via Redis) on other instances. A slow client is
// dropped rather than blocking delivery.
func (h *Hub) Deliver(userID string, replies []dto.Reply) {
	data, err := json.Marshal(map[string]interface{}{
		"type": "replies",
		"data": replies,
	})
	if err != nil {
		h.logger.Error("hub", "failed to marshal replies", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return
	}

	h.deliverLocal(userID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"target_user_id": userID,
			"message":        json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

func (h *Hub) deliverLocal(userID string, data []byte) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("hub", "send buffer full, dropping client", map[string]interface{}{"user_id": userID})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetUserID string          `json:"target_user_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Error("hub", "malformed cluster event", map[string]interface{}{"error": err.Error()})
			continue
		}
		h.deliverLocal(payload.TargetUserID, payload.Message)
	}
}
