package configuration

import (
	"context"
	"fmt"
	"os"
	"time"

	"Taskora/internal/call"
	"Taskora/internal/db"
	"Taskora/internal/handler"
	"Taskora/internal/hub"
	"Taskora/internal/model"
	"Taskora/internal/repo"
	"Taskora/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	ChatHandler    handler.ChatHandler
	UserHandler    handler.UserHandler
	CallHandler    handler.CallHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoDatabase *mongo.Database
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("TASKORA_CONFIG")
	if configPath == "" {
		configPath = "config.json"
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, err
	}

	conversationStore := db.NewRepository[model.Conversation](con, config.ChatDatabase.ConversationsCollection)
	messageStore := db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection)
	userStore := db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection)

	conversationRepo := repo.NewConversationRepository(conversationStore, logger)
	messageRepo := repo.NewMessageRepository(messageStore, logger)
	userRepo := repo.NewUserRepository(userStore, logger)

	chatService := service.NewChatService(conversationRepo, messageRepo, userRepo, logger)

	signer, err := call.NewTokenSigner(
		config.Call.TokenSecret,
		time.Duration(config.Call.TokenTTLMinutes)*time.Minute,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create call token signer: %w", err)
	}

	h := hub.NewHub(logger, config.CORS.AllowedOrigins)

	monitorService := hub.NewMonitorService(h)

	return &Container{
		ChatHandler:    handler.NewChatHandler(chatService, h, logger),
		UserHandler:    handler.NewUserHandler(chatService, logger),
		CallHandler:    handler.NewCallHandler(signer, logger),
		MonitorHandler: handler.NewMonitorHandler(monitorService),
		Hub:            h,
		Config:         *config,
		Logger:         logger,
		mongoDatabase:  con,
	}, nil
}

// Close gracefully shuts down all connections.
func (c *Container) Close() error {
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.mongoDatabase != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoDatabase.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
