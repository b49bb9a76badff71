// Package storage opens the embedded SQLite database and provides schema
// migration and transaction helpers on top of database/sql.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// Config holds database configuration.
type Config struct {
	// DSN is a file path or a "file:" URI. ":memory:" opens a private
	// in-memory database.
	DSN string `yaml:"dsn" json:"dsn" env:"QUALITY_STORE_DSN"`
	// WAL switches file databases to write-ahead logging.
	WAL bool `yaml:"wal" json:"wal"`
}

// DB wraps a *sql.DB with migration and query-builder helpers.
type DB struct {
	*sql.DB
	logger *slog.Logger
}

// Open connects to the database described by cfg and verifies the
// connection.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("open database: empty DSN")
	}

	db, err := sql.Open("sqlite", pragmaDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serialises writers; a single connection that is never recycled
	// also keeps a ":memory:" database and its schema alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{DB: db, logger: slog.Default()}, nil
}

// pragmaDSN appends the connection pragmas to the DSN so that the driver
// applies them to every connection it opens.
func pragmaDSN(cfg Config) string {
	pragmas := []string{"foreign_keys(1)", "busy_timeout(5000)"}
	if cfg.WAL && !strings.Contains(cfg.DSN, ":memory:") {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(cfg.DSN, "?") {
		sep = "&"
	}
	var b strings.Builder
	b.WriteString(cfg.DSN)
	for _, p := range pragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// Builder returns a squirrel statement builder bound to this database.
func (db *DB) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(db.DB)
}

// Migrate runs the given SQL schema on the database.
func (db *DB) Migrate(ctx context.Context, schema string) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db.logger.Debug("database migration completed")
	return nil
}

// Transaction runs fn inside a transaction, rolling back when fn fails.
func (db *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
