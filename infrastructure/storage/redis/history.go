package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/memory"
)

// HistoryStore is a Redis-backed implementation of memory.Store.
// Exchanges are kept as JSON in one capped list, oldest at the head.
type HistoryStore struct {
	client    *redis.Client
	keyPrefix string
	maxLen    int
}

// NewHistoryStore creates a new Redis history store with the given configuration.
func NewHistoryStore(cfg Config, opts ...ConfigOption) (*HistoryStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return NewHistoryStoreFromClient(client, cfg.KeyPrefix, cfg.MaxLen), nil
}

// NewHistoryStoreFromClient creates a history store from an existing Redis client.
func NewHistoryStoreFromClient(client *redis.Client, keyPrefix string, maxLen int) *HistoryStore {
	return &HistoryStore{
		client:    client,
		keyPrefix: keyPrefix,
		maxLen:    maxLen,
	}
}

func (s *HistoryStore) historyKey() string {
	return s.keyPrefix + "history"
}

// Append records an exchange and trims the list to its cap.
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

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.historyKey(), data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.historyKey(), int64(-s.maxLen), -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapError(err)
	}
	return nil
}

// Recent returns up to n of the newest exchanges, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]conversation.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}

	items, err := s.client.LRange(ctx, s.historyKey(), start, -1).Result()
	if err != nil {
		return nil, wrapError(err)
	}

	out := make([]conversation.Exchange, 0, len(items))
	for _, item := range items {
		var e conversation.Exchange
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Clear removes the history list.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapError(s.client.Del(ctx, s.historyKey()).Err())
}

// Close closes the Redis connection.
func (s *HistoryStore) Close() error {
	return s.client.Close()
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrOperationTimeout, err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(ErrOperationTimeout, err)
	}

	return err
}

var _ memory.Store = (*HistoryStore)(nil)
