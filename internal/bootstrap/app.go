package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/n-spicher/shipwright/internal/ai"
	"github.com/n-spicher/shipwright/internal/config"
	"github.com/n-spicher/shipwright/internal/model"
	mysqlClient "github.com/n-spicher/shipwright/internal/platform/mysql"
	rabbitmqClient "github.com/n-spicher/shipwright/internal/platform/rabbitmq"
	redisClient "github.com/n-spicher/shipwright/internal/platform/redis"
	"github.com/n-spicher/shipwright/internal/repository"
	"github.com/n-spicher/shipwright/internal/vectorstore"
	"github.com/n-spicher/shipwright/internal/worker"
)

type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Gemini      *ai.GeminiClient
	VectorStore *vectorstore.QdrantStore
	EventWorker *worker.IngestEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.Document{}, &model.Keyword{}, &model.IngestEvent{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	gemini := ai.NewGeminiClient(ai.GeminiConfig{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Timeout:        time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	vectorStore := vectorstore.NewQdrantStore(vectorstore.Config{
		URL:     cfg.VectorStore.URL,
		APIKey:  cfg.VectorStore.APIKey,
		Timeout: time.Duration(cfg.VectorStore.TimeoutSeconds) * time.Second,
	})

	eventRepo := repository.NewIngestEventRepository(mysqlDB)
	eventWorker := worker.NewIngestEventWorker(mqConn, eventRepo, cfg.RabbitMQ.IngestEventQueue)
	if err := eventWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest event worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		Gemini:      gemini,
		VectorStore: vectorStore,
		EventWorker: eventWorker,
		StartedAt:   time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
