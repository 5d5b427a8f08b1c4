package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	domainmemory "github.com/felixgeelhaar/vigil/domain/memory"
)

// DefaultHistoryLimit is the number of exchanges kept by a HistoryStore.
const DefaultHistoryLimit = 500

// HistoryStore is an in-memory implementation of memory.Store.
// It keeps the newest exchanges up to its limit.
type HistoryStore struct {
	exchanges []conversation.Exchange
	limit     int
	mu        sync.RWMutex
}

// HistoryOption configures the history store.
type HistoryOption func(*HistoryStore)

// WithHistoryLimit sets the maximum number of retained exchanges.
func WithHistoryLimit(n int) HistoryOption {
	return func(s *HistoryStore) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore(opts ...HistoryOption) *HistoryStore {
	s := &HistoryStore{
		limit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records an exchange, dropping the oldest when the limit is reached.
func (s *HistoryStore) Append(ctx context.Context, e conversation.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domainmemory.ValidateExchange(e); err != nil {
		return err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Providers = append([]string(nil), e.Providers...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.exchanges = append(s.exchanges, e)
	if over := len(s.exchanges) - s.limit; over > 0 {
		s.exchanges = append([]conversation.Exchange(nil), s.exchanges[over:]...)
	}
	return nil
}

// Recent returns up to n of the newest exchanges, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]conversation.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.exchanges) {
		n = len(s.exchanges)
	}
	out := make([]conversation.Exchange, n)
	copy(out, s.exchanges[len(s.exchanges)-n:])
	return out, nil
}

// Clear removes all exchanges.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.exchanges = nil
	return nil
}

// Len returns the number of stored exchanges.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exchanges)
}

var _ domainmemory.Store = (*HistoryStore)(nil)
