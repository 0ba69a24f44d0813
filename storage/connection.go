package storage

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase abre la conexión según el URI configurado. URIs postgres://
// usan el driver de Postgres; cualquier otra cosa se trata como DSN de
// SQLite.
func NewDatabase(uri string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	isPostgres := strings.HasPrefix(uri, "postgres://") || strings.HasPrefix(uri, "postgresql://")
	if isPostgres {
		dialector = postgres.Open(uri)
	} else {
		dialector = sqlite.Open(uri)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database (%s): %w", uri, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB instance: %w", err)
	}

	if isPostgres {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}
