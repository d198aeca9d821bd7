package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"loa-scraper/models"
	"loa-scraper/utils"
)

const (
	batchSize    = 50
	volumeFields = 7
)

// PostgresWriter stores volume records in the volumes table. Each run replaces
// the rows of the previous one: the clear and every batch share one
// transaction that is committed only by Close, so an aborted run leaves the
// previous table untouched.
type PostgresWriter struct {
	db *sql.DB

	mu      sync.Mutex
	pending []*models.VolumeRecord
	tx      *sql.Tx
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, maxRetries int, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: maxRetries, BaseDelay: 2 * time.Second, Logger: logger}
	if err := retry.Do(ctx, "postgres-ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS volumes (
			id                    SERIAL  PRIMARY KEY,
			volume_number         INTEGER NOT NULL,
			title                 TEXT    NOT NULL,
			author                TEXT    NOT NULL DEFAULT '',
			author_wikipedia_link TEXT    NOT NULL DEFAULT '',
			loa_detail_link       TEXT    NOT NULL DEFAULT '',
			original_volume_name  TEXT    NOT NULL DEFAULT '',
			own_volume            TEXT    NOT NULL DEFAULT '',
			created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_volumes_number ON volumes(volume_number);
		CREATE INDEX IF NOT EXISTS idx_volumes_author ON volumes(author);
	`)
	return err
}

// Write queues a record and inserts a batch once enough are pending.
func (pw *PostgresWriter) Write(v *models.VolumeRecord) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.pending = append(pw.pending, v)
	if len(pw.pending) < batchSize {
		return nil
	}
	return pw.flush()
}

// Close inserts any pending records, commits the run and closes the
// connection.
func (pw *PostgresWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	err := pw.flush()
	if err == nil && pw.tx != nil {
		if err = pw.tx.Commit(); err != nil {
			err = fmt.Errorf("postgres: commit: %w", err)
		}
	} else if pw.tx != nil {
		_ = pw.tx.Rollback()
	}
	pw.tx = nil

	if cerr := pw.db.Close(); cerr != nil && err == nil {
		return fmt.Errorf("postgres: close: %w", cerr)
	}
	return err
}

// Abort drops pending records, rolls back anything already inserted and
// closes the connection.
func (pw *PostgresWriter) Abort() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.pending = nil
	var err error
	if pw.tx != nil {
		if rerr := pw.tx.Rollback(); rerr != nil {
			err = fmt.Errorf("postgres: rollback: %w", rerr)
		}
		pw.tx = nil
	}
	if cerr := pw.db.Close(); cerr != nil && err == nil {
		return fmt.Errorf("postgres: close: %w", cerr)
	}
	return err
}

func (pw *PostgresWriter) flush() error {
	if len(pw.pending) == 0 {
		return nil
	}

	if pw.tx == nil {
		tx, err := pw.db.Begin()
		if err != nil {
			return fmt.Errorf("postgres: begin: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM volumes"); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres: clear: %w", err)
		}
		pw.tx = tx
	}

	query, args := insertBatch(pw.pending)
	if _, err := pw.tx.Exec(query, args...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	pw.pending = pw.pending[:0]
	return nil
}

func insertBatch(batch []*models.VolumeRecord) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*volumeFields)

	for idx, v := range batch {
		base := idx * volumeFields
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			int64(v.Number), v.Title, v.Author, v.AuthorLink, v.DetailLink, v.OriginalLabel, v.OwnVolume)
	}

	query := fmt.Sprintf(`
		INSERT INTO volumes (volume_number, title, author, author_wikipedia_link,
			loa_detail_link, original_volume_name, own_volume)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}
