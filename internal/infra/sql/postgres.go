package sql

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultQueryTimeout = 5 * time.Second

func NewPostgresORM(dsn string) (*DB, error) {
	pass, ok := os.LookupEnv("OPSCONSOLE_POSTGRES_PASSWORD")
	if ok && !strings.Contains(dsn, "://") {
		dsn = fmt.Sprintf("%s password=%s", dsn, pass)
	}

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %w", err)
	}

	return &DB{
		DB:                   gormDB,
		autoMigrationEnabled: true,
		timeout:              defaultQueryTimeout,
	}, nil
}

// Open picks the driver from the dsn: empty for in-memory sqlite, a
// postgres url or key/value dsn for postgres, anything else is a sqlite file.
func Open(dsn string) (*DB, error) {
	switch {
	case dsn == "":
		return NewMemoryORM()
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return NewPostgresORM(dsn)
	default:
		return NewSQLiteORM(strings.TrimPrefix(dsn, "sqlite://"))
	}
}
