package bootstrap

import (
	"log"
	"time"

	"kb-assistant-be/internal/config"
	"kb-assistant-be/internal/controller"
	"kb-assistant-be/internal/pkg/logger"
	"kb-assistant-be/internal/repository/contract"
	"kb-assistant-be/internal/repository/implementation"
	"kb-assistant-be/internal/repository/memory"
	"kb-assistant-be/internal/repository/redisrepo"
	"kb-assistant-be/internal/service"
	"kb-assistant-be/internal/websocket"
	"kb-assistant-be/pkg/diagnostic"
	pkgNats "kb-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	ChatController  controller.IChatController
	AdminController controller.IAdminController

	// Background services, run by main.
	ConsumerService *service.EventConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Content store
	knowledgeRepo, err := implementation.NewFileKnowledgeRepository(
		cfg.Knowledge.TextsPath,
		cfg.Knowledge.ImagesPath,
		cfg.Knowledge.FilesPath,
		cfg.Knowledge.MaterialsFile,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize knowledge repository: %v", err)
	}

	// Diagnostic table: built-in unless a JSON override is configured
	kb := diagnostic.Default()
	if cfg.Knowledge.DiagnosticFile != "" {
		kb, err = diagnostic.LoadFile(cfg.Knowledge.DiagnosticFile)
		if err != nil {
			log.Fatalf("[FATAL] Failed to load diagnostic knowledge base: %v", err)
		}
		log.Printf("[INFO] Using diagnostic knowledge base: %s", cfg.Knowledge.DiagnosticFile)
	}
	engine := diagnostic.NewEngine(kb)

	// Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// NATS mirror (optional)
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis (optional: websocket fan-out + session backend)
	var rdb *redis.Client
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb = redis.NewClient(opt)

	// Sessions
	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	var sessionRepo contract.SessionRepository
	if cfg.Session.Backend == "redis" {
		sessionRepo = redisrepo.NewSessionRepository(rdb, ttl, sysLogger)
		log.Printf("[INFO] Using Redis session backend")
	} else {
		sessionRepo = memory.NewSessionRepository(ttl)
	}

	// Services
	publisher := service.NewEventPublisherService(pubSub, natsPub, sysLogger)
	audit := service.NewAuditTrail(1000)
	consumer := service.NewEventConsumerService(pubSub, audit, sysLogger)

	conversation := service.NewConversationService(knowledgeRepo, sessionRepo, engine, publisher, sysLogger)
	adminService := service.NewAdminService(cfg.Auth, sysLogger, audit)

	// WebSocket hub with its own file-only logger
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	hub := websocket.NewHub(rdb, wsLogger)

	return &Container{
		ChatController:  controller.NewChatController(conversation, hub),
		AdminController: controller.NewAdminController(adminService),
		ConsumerService: consumer,
		WebSocketHub:    hub,
		Logger:          sysLogger,
	}
}
