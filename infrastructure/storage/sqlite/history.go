package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/memory"
)

// HistoryStore is a SQLite-backed implementation of memory.Store.
type HistoryStore struct {
	db        *sql.DB
	namespace string
}

// NewHistoryStore creates a new SQLite history store with the given configuration.
func NewHistoryStore(cfg Config, opts ...Option) (*HistoryStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &HistoryStore{db: db, namespace: cfg.KeyPrefix}

	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// NewHistoryStoreFromDB creates a history store from an existing database connection.
func NewHistoryStoreFromDB(db *sql.DB, namespace string) (*HistoryStore, error) {
	s := &HistoryStore{db: db, namespace: namespace}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HistoryStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS exchanges (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			namespace TEXT NOT NULL DEFAULT '',
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL,
			mode TEXT NOT NULL,
			providers TEXT NOT NULL,
			cache_hit INTEGER NOT NULL,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_exchanges_namespace_seq ON exchanges(namespace, seq);
	`

	if _, err := s.db.Exec(schema); err != nil {
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

	providers, err := json.Marshal(e.Providers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, namespace, prompt, answer, mode, providers, cache_hit, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, s.namespace, e.Prompt, e.Answer, e.Mode, string(providers), e.CacheHit, e.Timestamp.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return memory.ErrExchangeExists
		}
		return err
	}
	return nil
}

// Recent returns up to n of the newest exchanges, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]conversation.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := n
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded.
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, answer, mode, providers, cache_hit, timestamp
		 FROM exchanges WHERE namespace = ? ORDER BY seq DESC LIMIT ?`,
		s.namespace, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []conversation.Exchange
	for rows.Next() {
		var (
			e         conversation.Exchange
			providers string
			ts        int64
		)
		if err := rows.Scan(&e.ID, &e.Prompt, &e.Answer, &e.Mode, &providers, &e.CacheHit, &ts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(providers), &e.Providers); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into oldest-first order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear removes all exchanges in this store's namespace.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM exchanges WHERE namespace = ?", s.namespace)
	return err
}

// Count returns the number of exchanges in this store's namespace.
func (s *HistoryStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchanges WHERE namespace = ?", s.namespace).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ memory.Store = (*HistoryStore)(nil)
