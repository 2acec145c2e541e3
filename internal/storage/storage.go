// Package storage selects the destination table implementation from DB_DRIVER.
package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"github.com/BartekS5/flightetl/internal/config"
	"github.com/BartekS5/flightetl/internal/etl"
	"github.com/BartekS5/flightetl/internal/storage/gormstore"
	"github.com/BartekS5/flightetl/internal/storage/mssql"
	pgstore "github.com/BartekS5/flightetl/internal/storage/postgres"
	"github.com/BartekS5/flightetl/pkg/database"
	"github.com/BartekS5/flightetl/pkg/logger"
	"github.com/BartekS5/flightetl/pkg/models"
)

// Store is a destination table with the connection-level operations the CLI
// and health checks need.
type Store interface {
	etl.Store
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Open connects to the configured database and returns its store. The
// connection is verified before returning.
func Open(ctx context.Context, cfg *config.Config, mapping *models.MappingSchema, log logger.Logger) (Store, error) {
	table := mapping.Table
	columns := mapping.TargetColumns()
	log = log.With("driver", cfg.DB.Driver, "table", table)

	switch cfg.DB.Driver {
	case config.DriverPostgres:
		pool, err := database.ConnectPostgres(ctx, cfg.DB.PostgresDSN())
		if err != nil {
			return nil, err
		}
		return pgstore.New(pool, pgstore.Config{Table: table, Columns: columns, ChunkSize: cfg.Load.ChunkSize}, log), nil

	case config.DriverSQLServer:
		db, err := database.ConnectSQL(ctx, cfg.DB.SQLServerDSN())
		if err != nil {
			return nil, err
		}
		return mssql.New(db, mssql.Config{Table: table, Columns: columns, ChunkSize: cfg.Load.ChunkSize}, log), nil

	case config.DriverORM:
		db, err := database.OpenGorm(postgres.Open(cfg.DB.PostgresDSN()))
		if err != nil {
			return nil, err
		}
		return gormstore.New(db, table, cfg.Load.ChunkSize, log), nil

	case config.DriverSQLite:
		db, err := database.OpenGorm(sqlite.Open(cfg.DB.SQLitePath))
		if err != nil {
			return nil, err
		}
		return gormstore.New(db, table, cfg.Load.ChunkSize, log), nil

	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
}
