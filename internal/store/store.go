package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adi-253/Talkie/relay/internal/models"
)

// sqlitePragmas make every committed write durable before Append returns.
var sqlitePragmas = []string{
	"_pragma=journal_mode(WAL)",
	"_pragma=synchronous(FULL)",
	"_pragma=busy_timeout(5000)",
	"_pragma=foreign_keys(1)",
}

// Options configures Open.
type Options struct {
	// Path is a file path or a sqlite URI such as "file:test?mode=memory&cache=shared"
	Path string

	// LogLevel defaults to logger.Warn
	LogLevel logger.LogLevel
}

// Open opens the SQLite database and migrates the messages table.
func Open(opts Options) (*gorm.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn(opts.Path)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite allows a single writer; one connection keeps appends strictly ordered
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Message{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("[Store] Database ready at %s", opts.Path)
	return db, nil
}

// Ping reports whether the database is reachable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(sqlitePragmas, "&")
}
