package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

func NewPostgresPool(cfg config.Config, log logger.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("do not create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database failed: %w", err)
	}

	log.Info("Connect PostgreSQL successfully.")
	return pool, nil
}

// OpenSQLite opens an embedded database and migrates the portfolio table.
// Writes go through a single connection so unique constraints, not locks,
// decide concurrent inserts.
func OpenSQLite(path string, log logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&portfolioModel{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	log.Info("Open SQLite successfully.")
	return db, nil
}

// NewPortfolioRepository picks the store configured by db.driver. The
// returned closer releases the underlying connections.
func NewPortfolioRepository(cfg config.Config, log logger.Logger) (portfolio.Repository, func(), error) {
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.DB.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return NewSQLitePortfolioRepo(db, log), closer, nil
	default:
		pool, err := NewPostgresPool(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresPortfolioRepo(pool, log), pool.Close, nil
	}
}
