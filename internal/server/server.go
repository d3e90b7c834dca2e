package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/surrealdb/surrealdb.go"

	"github.com/ripplechat/ripple/internal/config"
	"github.com/ripplechat/ripple/internal/database"
	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/handlers"
	"github.com/ripplechat/ripple/internal/logging"
	"github.com/ripplechat/ripple/internal/pubsub"
	"github.com/ripplechat/ripple/internal/realtime"
	"github.com/ripplechat/ripple/internal/storage"
	"github.com/ripplechat/ripple/internal/topicmgr"
	"github.com/ripplechat/ripple/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config

	bus          *pubsub.WatermillBridge
	publisher    pubsub.Publisher
	gateway      *realtime.Gateway
	bridge       *websocket.Bridge
	subscriber   *realtime.Subscriber
	traceCleanup func()

	userStore         domain.UserRepository
	conversationStore *database.ConversationStore
	messageStore      domain.MessageRepository
	fileStore         storage.Store

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	messageHandler      *handlers.MessageHandler
	conversationHandler *handlers.ConversationHandler
	uploadHandler       *handlers.UploadHandler
}

// New creates a new Server instance with all dependencies wired.
func New() *Server {
	logging.New()
	cfg := config.New()

	ctx := context.Background()
	db, err := database.NewDB(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	bus := pubsub.NewWatermillBridge()

	tracer, traceCleanup, err := pubsub.SetupOTel(ctx, pubsub.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "ripple",
		ZipkinURL:   cfg.ZipkinURL,
	})
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	var publisher pubsub.Publisher = bus
	if cfg.TracingEnabled {
		publisher = pubsub.NewTracedPublisher(bus, tracer)
	}

	userStore := database.NewUserStore(db)
	conversationStore := database.NewConversationStore(db)
	messageStore := database.NewMessageStore(db)
	fileStore := storage.NewDiskStore(cfg.UploadDir)

	presence := realtime.NewPresence(publisher, userStore)
	bridge := websocket.NewBridge(publisher)
	gateway := realtime.NewGateway(realtime.GatewayConfig{
		Sender:          bridge,
		Presence:        presence,
		Authorizer:      conversationStore,
		Messages:        messageStore,
		TypingTimeout:   cfg.TypingTimeout,
		OfflineDebounce: cfg.OfflineDebounce,
	})
	bridge.Attach(gateway)

	if err := registerTopics(); err != nil {
		slog.Error("Failed to register bus topics", "error", err)
		os.Exit(1)
	}

	return &Server{
		E:                   echo.New(),
		DB:                  db,
		Cfg:                 cfg,
		bus:                 bus,
		publisher:           publisher,
		gateway:             gateway,
		bridge:              bridge,
		subscriber:          realtime.NewSubscriber(gateway, bus),
		traceCleanup:        traceCleanup,
		userStore:           userStore,
		conversationStore:   conversationStore,
		messageStore:        messageStore,
		fileStore:           fileStore,
		authHandler:         handlers.NewAuthHandler(userStore),
		userHandler:         handlers.NewUserHandler(userStore),
		messageHandler:      handlers.NewMessageHandler(messageStore, conversationStore, publisher),
		conversationHandler: handlers.NewConversationHandler(conversationStore),
		uploadHandler:       handlers.NewUploadHandler(fileStore, cfg.MaxUploadSize),
	}
}

// registerTopics announces every bus topic to the default topic manager so
// the CLI can list and document them.
func registerTopics() error {
	manager := topicmgr.Default()
	if err := realtime.RegisterTopics(manager); err != nil {
		return err
	}
	return websocket.RegisterTopics(manager)
}

// UserStore is a getter for the server's user store, useful for testing.
func (s *Server) UserStore() domain.UserRepository {
	return s.userStore
}

// Gateway is a getter for the real-time core, useful for testing.
func (s *Server) Gateway() *realtime.Gateway {
	return s.gateway
}
