package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"chatrelay/internal/ai"
	appsvc "chatrelay/internal/app"
	"chatrelay/internal/cache"
	"chatrelay/internal/config"
	"chatrelay/internal/conversation"
	"chatrelay/internal/pkg/logger"
	"chatrelay/internal/platform/database"
	rabbitmqClient "chatrelay/internal/platform/rabbitmq"
	redisClient "chatrelay/internal/platform/redis"
	"chatrelay/internal/queue"
	"chatrelay/internal/repository"
	"chatrelay/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	ChatService         *appsvc.ChatService
	ConversationService *appsvc.ConversationService

	SummaryWorker *worker.SummaryWorker
	closers       []func() error

	StartedAt time.Time
}

// New wires every dependency from the configuration at configPath. An empty
// path falls back to CONFIG_FILE or configs/config.toml.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Env, cfg.App.Name)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := database.New(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	a.DB = db

	var historyCache appsvc.HistoryCache
	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		a.Redis = redisCli
		historyCache = cache.NewHistoryCache(redisCli, cfg.HistoryTTL(), cfg.HistoryDirtyTTL())
	}

	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	completer := ai.NewAzureClient(ai.ChatConfig{
		Endpoint:   cfg.LLM.Endpoint,
		APIKey:     cfg.LLM.APIKey,
		APIVersion: cfg.LLM.APIVersion,
		Model:      cfg.LLM.Model,
	}, nil)
	manager := conversation.NewManager(cfg.LLM.MaxTokens, completer)

	var dispatcher appsvc.SummaryDispatcher
	switch cfg.Summary.Mode {
	case config.SummaryModeSync:
		a.SummaryWorker = worker.NewSummaryWorker(nil, manager, conversationRepo,
			cfg.Summary.Workers, cfg.SummaryTimeout(), a.Logger)
		dispatcher = worker.NewInlineDispatcher(a.SummaryWorker)
	default:
		publisher, receiver, err := a.summaryQueue(ctx)
		if err != nil {
			return err
		}
		a.SummaryWorker = worker.NewSummaryWorker(receiver, manager, conversationRepo,
			cfg.Summary.Workers, cfg.SummaryTimeout(), a.Logger)
		a.SummaryWorker.Start(context.Background())
		dispatcher = worker.NewQueueDispatcher(publisher)
	}

	a.ChatService = appsvc.NewChatService(
		conversationRepo,
		messageRepo,
		manager,
		completer,
		dispatcher,
		historyCache,
		cfg.LLMTimeout(),
		a.Logger,
	)
	a.ConversationService = appsvc.NewConversationService(conversationRepo, messageRepo, historyCache, a.Logger)

	a.Logger.Info("application wired",
		zap.String("database", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("rabbitmq", a.MQConn != nil),
		zap.String("summary_mode", cfg.Summary.Mode),
		zap.Int("token_budget", manager.MaxTokens()),
	)
	return nil
}

// summaryQueue picks RabbitMQ when a URL is configured and an in-process
// queue otherwise.
func (a *App) summaryQueue(ctx context.Context) (queue.Publisher, queue.Receiver, error) {
	cfg := a.Config
	if cfg.RabbitMQ.URL == "" {
		memory := queue.NewInMemoryQueue(queue.DefaultCapacity)
		a.closers = append(a.closers, func() error {
			memory.Close()
			return nil
		})
		return memory, memory, nil
	}

	conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, nil, err
	}
	a.MQConn = conn

	consumer, err := rabbitmqClient.NewConsumer(ctx, conn, cfg.RabbitMQ.SummaryQueue, cfg.Summary.Workers)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, consumer.Close)
	return rabbitmqClient.NewPublisher(conn, cfg.RabbitMQ.SummaryQueue), consumer, nil
}

// Close stops the summary workers before closing the connections they use.
func (a *App) Close() error {
	var closeErr error
	if a.SummaryWorker != nil {
		a.SummaryWorker.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
