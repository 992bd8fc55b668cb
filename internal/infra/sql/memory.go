package sql

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMemoryORM opens a private in-memory sqlite database. Every call gets its
// own database; connections of the same ORM share it.
func NewMemoryORM() (*DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := openSQLite(dsn)
	if err != nil {
		return nil, err
	}

	// a single connection keeps the database alive and avoids shared-cache table locks
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteORM opens a sqlite database file.
func NewSQLiteORM(path string) (*DB, error) {
	return openSQLite(path)
}

func openSQLite(dsn string) (*DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	return &DB{DB: gormDB, autoMigrationEnabled: true}, nil
}
