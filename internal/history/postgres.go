package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvgate/internal/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS validation_history (
	id           TEXT PRIMARY KEY,
	file_name    TEXT NOT NULL,
	file_size    BIGINT NOT NULL,
	ok           BOOLEAN NOT NULL,
	reason       TEXT,
	code         TEXT,
	columns      TEXT[] NOT NULL DEFAULT '{}',
	rows_counted INTEGER NOT NULL,
	duration_ms  BIGINT NOT NULL,
	client_ip    TEXT,
	user_agent   TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS validation_history_created_at_idx
	ON validation_history (created_at DESC);
`

const insertSQL = `
INSERT INTO validation_history (
	id, file_name, file_size, ok, reason, code, columns,
	rows_counted, duration_ms, client_ip, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const recentSQL = `
SELECT id, file_name, file_size, ok, reason, code, columns,
       rows_counted, duration_ms, client_ip, user_agent, created_at
FROM validation_history
ORDER BY created_at DESC
LIMIT $1`

const pruneSQL = `DELETE FROM validation_history WHERE created_at < $1`

// PostgresStore persists records in the validation_history table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by pool. Call EnsureSchema before
// first use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the history table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create validation_history: %w", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Add(ctx context.Context, rec Record) error {
	columns := rec.Columns
	if columns == nil {
		columns = []string{}
	}

	_, err := p.pool.Exec(ctx, insertSQL,
		rec.ID,
		rec.FileName,
		rec.FileSize,
		rec.OK,
		nullText(string(rec.Reason)),
		nullText(rec.Code),
		columns,
		rec.RowsCounted,
		rec.DurationMs,
		nullText(rec.ClientIP),
		nullText(rec.UserAgent),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation record %s: %w", rec.ID, err)
	}
	return nil
}

func (p *PostgresStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := p.pool.Query(ctx, recentSQL, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query validation history: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan validation history: %w", err)
	}
	return records, nil
}

func (p *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, pruneSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune validation history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanRecord scans a single row from validation_history into a Record.
func scanRecord(row pgx.CollectableRow) (Record, error) {
	var (
		rec       Record
		reason    pgtype.Text
		code      pgtype.Text
		clientIP  pgtype.Text
		userAgent pgtype.Text
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&rec.ID, &rec.FileName, &rec.FileSize, &rec.OK, &reason, &code, &rec.Columns,
		&rec.RowsCounted, &rec.DurationMs, &clientIP, &userAgent, &createdAt,
	)
	if err != nil {
		return Record{}, err
	}

	rec.Reason = core.Reason(reason.String)
	rec.Code = code.String
	rec.ClientIP = clientIP.String
	rec.UserAgent = userAgent.String
	rec.CreatedAt = createdAt.Time
	return rec, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
