// Package app собирает зависимости лиги из конфигурации. Используется
// HTTP-сервером и leaguectl.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/config"
	"github.com/Dosada05/chess-league/db"
	"github.com/Dosada05/chess-league/lichess"
	"github.com/Dosada05/chess-league/logger"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/services"
	"github.com/Dosada05/chess-league/storage"
)

const dbConnectTimeout = 5 * time.Second

type Options struct {
	// Migrate применяет схему при подключении к Postgres.
	Migrate bool
}

type App struct {
	Store   repositories.Store
	Hub     *brackets.Hub
	Lichess *lichess.Client
	Games   lichess.GameSource

	League    services.LeagueService
	Events    services.EventService
	Members   services.MemberService
	Bootstrap services.BootstrapService

	dbConn *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	log = logger.OrNop(log)
	a := &App{logger: log}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, using in-memory store; data is lost on exit")
		a.Store = repositories.NewMemoryStore()
	} else {
		conn, err := db.Connect(cfg.DatabaseURL, dbConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.dbConn = conn
		if opts.Migrate {
			if err := db.Migrate(ctx, conn); err != nil {
				a.Close()
				return nil, err
			}
			log.Info("database schema applied")
		}
		a.Store = repositories.NewPostgresStore(conn, log)
		log.Info("database connection established")
	}

	a.Lichess = lichess.NewClient(cfg.LichessBaseURL, cfg.LichessAPIToken, cfg.LichessRequestsPerMinute, log.Named("lichess"))
	a.Games = a.Lichess
	if cfg.RedisURL != "" {
		rdb, err := lichess.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.redis = rdb
		a.Games = lichess.NewCachedSource(a.Lichess, rdb, cfg.LichessCacheTTL, log.Named("lichess_cache"))
		log.Info("lichess game cache enabled", zap.Duration("ttl", cfg.LichessCacheTTL))
	}

	var archiver services.GameArchiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		archiver = storage.NewGameArchive(uploader)
		log.Info("game archive enabled", zap.String("bucket", cfg.R2BucketName))
	}

	a.Hub = brackets.NewHub(log.Named("hub"))
	a.League = services.NewLeagueService(a.Store, a.Hub, archiver, log.Named("league"))
	a.Events = services.NewEventService(a.Store, nil, a.Hub, log.Named("events"))
	a.Members = services.NewMemberService(a.Store, a.Lichess, log.Named("members"))
	a.Bootstrap = services.NewBootstrapService(a.Store, a.Games, a.League, log.Named("bootstrap"))
	return a, nil
}

// Migrate применяет схему; для in-memory хранилища ничего не делает.
func (a *App) Migrate(ctx context.Context) error {
	if a.dbConn == nil {
		return errors.New("DATABASE_URL is not set, nothing to migrate")
	}
	return db.Migrate(ctx, a.dbConn)
}

func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.dbConn != nil {
		if err := a.dbConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			a.logger.Info("database connection closed")
		}
	}
	return errors.Join(errs...)
}
