package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/memory"
)

// HistoryStore is a BadgerDB-backed implementation of memory.Store.
//
// Key format: prefix + "history:" + sequence (8 bytes, big-endian), so key
// order is insertion order.
type HistoryStore struct {
	db        *badger.DB
	keyPrefix string
	mu        sync.Mutex
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	owned     bool
}

// NewHistoryStore creates a new BadgerDB history store with the given configuration.
func NewHistoryStore(cfg Config, opts ...Option) (*HistoryStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := NewHistoryStoreFromDB(db, cfg.KeyPrefix)
	s.owned = true

	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return s, nil
}

// NewHistoryStoreFromDB creates a history store from an existing BadgerDB database.
// Close does not close a database it did not open.
func NewHistoryStoreFromDB(db *badger.DB, keyPrefix string) *HistoryStore {
	return &HistoryStore{
		db:        db,
		keyPrefix: keyPrefix,
		gcStop:    make(chan struct{}),
	}
}

func (s *HistoryStore) startGC(interval time.Duration, discardRatio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				for s.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

func (s *HistoryStore) prefix() []byte {
	return []byte(s.keyPrefix + "history:")
}

func (s *HistoryStore) seqKey() []byte {
	return []byte(s.keyPrefix + "seq:history")
}

func (s *HistoryStore) exchangeKey(seq uint64) []byte {
	key := s.prefix()
	return binary.BigEndian.AppendUint64(key, seq)
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

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	// Serialize sequence allocation within this process.
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		item, err := txn.Get(s.seqKey())
		switch {
		case err == nil:
			err = item.Value(func(val []byte) error {
				if len(val) == 8 {
					seq = binary.BigEndian.Uint64(val)
				}
				return nil
			})
			if err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		seq++
		if err := txn.Set(s.exchangeKey(seq), data); err != nil {
			return err
		}
		return txn.Set(s.seqKey(), binary.BigEndian.AppendUint64(nil, seq))
	})
}

// Recent returns up to n of the newest exchanges, oldest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]conversation.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []conversation.Exchange
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = s.prefix()

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks to the largest key not above the target.
		seek := append(s.prefix(), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		for it.Seek(seek); it.Valid(); it.Next() {
			if n > 0 && len(out) >= n {
				break
			}
			var e conversation.Exchange
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Clear removes every exchange and resets the sequence.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.DropPrefix(s.prefix(), s.seqKey())
}

// Close stops background GC and closes the database if this store opened it.
func (s *HistoryStore) Close() error {
	close(s.gcStop)
	s.gcWg.Wait()

	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying BadgerDB database.
func (s *HistoryStore) DB() *badger.DB {
	return s.db
}

var _ memory.Store = (*HistoryStore)(nil)
