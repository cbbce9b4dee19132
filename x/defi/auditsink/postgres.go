package auditsink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const createAuditTable = `
CREATE TABLE IF NOT EXISTS defi_audit (
	kind           TEXT        NOT NULL,
	id             BIGINT      NOT NULL,
	correlation_id TEXT        NOT NULL DEFAULT '',
	payload        JSONB       NOT NULL,
	relayed_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, id)
)`

const insertAuditRecord = `
INSERT INTO defi_audit (kind, id, correlation_id, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (kind, id) DO NOTHING`

// PostgresSink persists records into the defi_audit table.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink connects to dsn and makes sure the audit table exists.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	if dsn == "" {
		return nil, errors.New("pg dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, createAuditTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

func (s *PostgresSink) Publish(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, insertAuditRecord,
		rec.Kind,
		int64(rec.ID),
		rec.CorrelationID,
		string(rec.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s/%d: %w", rec.Kind, rec.ID, err)
	}
	return nil
}

// Load returns the stored records of kind with id > after, oldest first.
func (s *PostgresSink) Load(ctx context.Context, kind string, after uint64) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, id, correlation_id, payload FROM defi_audit WHERE kind = $1 AND id > $2 ORDER BY id`,
		kind, int64(after),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			id      int64
			payload []byte
		)
		if err := rows.Scan(&rec.Kind, &id, &rec.CorrelationID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.ID = uint64(id)
		rec.Payload = payload
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresSink) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
