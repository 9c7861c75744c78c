// Package store persists processed experiences. Every backend is append-only,
// keeps insertion order and is keyed by record id.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/database"
	"github.com/jonathan/interview-insights/internal/db"
	"github.com/jonathan/interview-insights/internal/types"
)

var (
	// ErrDuplicateID is returned by Append when the id is already stored.
	ErrDuplicateID = errors.New("duplicate experience id")
	// ErrNotFound is returned by Get when no record has the id.
	ErrNotFound = errors.New("experience not found")
)

// Store is implemented by every backend. Implementations are safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, record types.ProcessedExperience) error
	List(ctx context.Context) ([]types.ProcessedExperience, error)
	Get(ctx context.Context, id string) (types.ProcessedExperience, error)
	Close() error
}

// Open builds the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		logger.Info("Using file store", zap.String("path", cfg.StorePath))
		return NewFileStore(cfg.StorePath)

	case config.BackendPostgres:
		conn, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := conn.Migrate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		logger.Info("Using postgres store")
		return NewPostgres(conn), nil

	case config.BackendClickHouse:
		chdb, err := database.New(ctx, database.Options{
			DSN:             cfg.ClickHouseDSN,
			MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
			MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
			Username:        cfg.ClickHouseUsername,
			Password:        cfg.ClickHousePassword,
			Database:        cfg.ClickHouseDatabase,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using clickhouse store")
		return NewClickHouse(chdb, logger), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
