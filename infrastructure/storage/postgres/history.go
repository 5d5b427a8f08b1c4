package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/memory"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// HistoryStore is a PostgreSQL-backed implementation of memory.Store.
type HistoryStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewHistoryStore creates a new PostgreSQL history store.
func NewHistoryStore(pool *pgxpool.Pool, schema string) *HistoryStore {
	if schema == "" {
		schema = "public"
	}
	return &HistoryStore{
		pool:   pool,
		schema: schema,
	}
}

// tableName returns the fully qualified, quoted table name.
func (s *HistoryStore) tableName() string {
	return pgx.Identifier{s.schema, "exchanges"}.Sanitize()
}

// Migrate creates the exchanges table if it doesn't exist.
func (s *HistoryStore) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL,
			mode TEXT NOT NULL,
			providers TEXT[] NOT NULL DEFAULT '{}',
			cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
			timestamp TIMESTAMPTZ NOT NULL
		)`, s.tableName())

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Append records an exchange.
func (s *HistoryStore) Append(ctx context.Context, e conversation.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := memory.ValidateExchange(e); err != nil {
		return err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	providers := e.Providers
	if providers == nil {
		providers = []string{}
	}

	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, prompt, answer, mode, providers, cache_hit, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.tableName()),
		e.ID, e.Prompt, e.Answer, e.Mode, providers, e.CacheHit, e.Timestamp,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return memory.ErrExchangeExists
		}
		return s.wrapError(err)
	}
	return nil
}

// Recent returns up to n of the newest exchanges, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]conversation.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, prompt, answer, mode, providers, cache_hit, timestamp
		FROM %s ORDER BY seq DESC`, s.tableName())
	var args []any
	if n > 0 {
		query += " LIMIT $1"
		args = append(args, n)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	var out []conversation.Exchange
	for rows.Next() {
		var e conversation.Exchange
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Answer, &e.Mode, &e.Providers, &e.CacheHit, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrapError(err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear removes all exchanges.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.tableName()))
	return s.wrapError(err)
}

// Close closes the connection pool.
func (s *HistoryStore) Close() error {
	s.pool.Close()
	return nil
}

// wrapError wraps database errors with package errors.
func (s *HistoryStore) wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrOperationTimeout, err)
	}

	return errors.Join(ErrConnectionFailed, err)
}

var _ memory.Store = (*HistoryStore)(nil)
