// Package storage handles database connections, schema migrations, and data
// operations using SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters,
// and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Prune removes counter samples, chat log rows and session rows older than
// the retention window. Identities and save summaries are reference data and
// are never pruned.
func (r *Repository) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	var total int64
	for _, table := range []string{"player_count", "chat_log", "player_sessions"} {
		res, err := r.db.Exec(`DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}

	if total > 0 {
		log.Info().Int64("deleted", total).Time("cutoff", cutoff).Msg("Pruned old records")
	}

	return total, nil
}
