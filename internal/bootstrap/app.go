package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"avatar-chat/internal/ai"
	"avatar-chat/internal/cache"
	"avatar-chat/internal/config"
	"avatar-chat/internal/database"
	mysqlClient "avatar-chat/internal/platform/mysql"
	postgresClient "avatar-chat/internal/platform/postgres"
	rabbitmqClient "avatar-chat/internal/platform/rabbitmq"
	redisClient "avatar-chat/internal/platform/redis"
	sqliteClient "avatar-chat/internal/platform/sqlite"
	"avatar-chat/internal/speech"
	"avatar-chat/internal/storage"
	"avatar-chat/internal/worker"
)

// App holds every long-lived dependency. Redis, MQConn and the turn
// publisher/worker are nil unless enabled in config.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	LastResponses *cache.LastResponseCache
	TurnPublisher *rabbitmqClient.TurnPublisher
	TurnWorker    *worker.TurnEventWorker

	Generator   ai.Generator
	Synthesizer speech.Synthesizer
	AudioStore  storage.AudioStore

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	slog.SetDefault(NewLogger(cfg.App))

	app := &App{Config: cfg, StartedAt: time.Now()}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate database failed: %w", err)
	}

	if cfg.Redis.Enabled {
		redisCli, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = redisCli
		a.LastResponses = cache.NewLastResponseCache(redisCli, cfg.LastResponseTTL())
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.TurnQueue)
		if err != nil {
			return err
		}
		a.MQConn = mqConn
		a.TurnPublisher = rabbitmqClient.NewTurnPublisher(mqConn, cfg.RabbitMQ.TurnQueue)

		turnWorker := worker.NewTurnEventWorker(mqConn, cfg.RabbitMQ.TurnQueue, worker.LogTurn)
		if err := turnWorker.Start(ctx); err != nil {
			return fmt.Errorf("start turn worker failed: %w", err)
		}
		a.TurnWorker = turnWorker
	}

	if a.Generator, err = ai.NewGenerator(cfg.LLM); err != nil {
		return err
	}
	if a.Synthesizer, err = speech.NewSynthesizer(cfg.Speech); err != nil {
		return err
	}
	if a.AudioStore, err = storage.NewAudioStore(ctx, cfg.Audio); err != nil {
		return err
	}

	slog.Info("application initialised",
		"db_driver", cfg.Database.Driver,
		"llm_provider", cfg.LLM.Provider,
		"speech_provider", cfg.Speech.Provider,
		"audio_store", cfg.Audio.Store,
		"redis", cfg.Redis.Enabled,
		"rabbitmq", cfg.RabbitMQ.Enabled,
	)
	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return sqliteClient.New(ctx, cfg.DSN)
	case "mysql":
		return mysqlClient.New(ctx, cfg.DSN)
	case "postgres":
		return postgresClient.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
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
	return closeErr
}
