// Package store implements the persistence contract (C7 and §6): a libsql
// connection with embedded-replica support, the scan/artifact/signal
// schema, and an optional S3-compatible blob store for untruncated
// artifact bodies.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/tursodatabase/go-libsql"

	"github.com/jmylchreest/riskintel/internal/store/migrations"
)

// NewDB opens a libsql connection.
//   - Local file: DATABASE_URL="file:riskintel.db?_journal=WAL&_timeout=5000"
//   - Embedded replica: set TURSO_URL + TURSO_AUTH_TOKEN to sync a local
//     file with a remote Turso database
//   - Local libsql server: DATABASE_URL="http://127.0.0.1:8080" (`turso dev`)
func NewDB(dsn string) (*sql.DB, error) {
	tursoURL := os.Getenv("TURSO_URL")
	tursoToken := os.Getenv("TURSO_AUTH_TOKEN")

	var db *sql.DB
	if tursoURL != "" && tursoToken != "" {
		dbPath := strings.TrimPrefix(dsn, "file:")
		dbPath = strings.Split(dbPath, "?")[0]

		connector, err := libsql.NewEmbeddedReplicaConnector(dbPath, tursoURL,
			libsql.WithAuthToken(tursoToken),
			libsql.WithReadYourWrites(true),
		)
		if err != nil {
			return nil, fmt.Errorf("create turso connector: %w", err)
		}
		db = sql.OpenDB(connector)
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
	} else {
		var err error
		db, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		maxConns := runtime.NumCPU()
		if maxConns < 4 {
			maxConns = 4
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns / 2)
	}

	pragmas := []struct{ query, name string }{
		{"PRAGMA journal_mode = WAL", "WAL mode"},
		{"PRAGMA busy_timeout = 30000", "busy timeout"},
		{"PRAGMA foreign_keys = ON", "foreign keys"},
		{"PRAGMA synchronous = NORMAL", "synchronous mode"},
		{"PRAGMA temp_store = memory", "temp store"},
	}
	for _, p := range pragmas {
		var result string
		if err := db.QueryRow(p.query).Scan(&result); err != nil {
			if _, execErr := db.Exec(p.query); execErr != nil {
				return nil, fmt.Errorf("set %s: %w", p.name, execErr)
			}
		}
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending schema migrations.
func Migrate(db *sql.DB, logger *slog.Logger) error {
	return migrations.Run(db, logger)
}
