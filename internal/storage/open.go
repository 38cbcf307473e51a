package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"monocart/internal/config"
	"monocart/internal/database"
)

// Open builds the backend selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageFile:
		logger.Info("Using file session storage", zap.String("path", cfg.Storage.FilePath))
		return NewFile(afero.NewOsFs(), cfg.Storage.FilePath)

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("Using redis session storage", zap.String("addr", cfg.RedisAddr()))
		return NewRedis(client, cfg.Redis.KeyPrefix+":session"), nil

	case config.StoragePostgres:
		db, err := database.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Using postgres session storage",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database),
		)
		return &ownedPostgres{Storage: NewPostgres(db), db: db}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// ownedPostgres closes the connection pool together with the storage
type ownedPostgres struct {
	Storage
	db *sql.DB
}

func (s *ownedPostgres) Close() error {
	if err := s.Storage.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

func (s *ownedPostgres) Health(ctx context.Context) map[string]string {
	return database.Health(ctx, s.db)
}
