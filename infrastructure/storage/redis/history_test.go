package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/vigil/domain/conversation"
	"github.com/felixgeelhaar/vigil/domain/memory"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s, want localhost:6379", cfg.Address)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("DialTimeout = %v, want %v", cfg.DialTimeout, 5*time.Second)
	}
	if cfg.KeyPrefix != "vigil:" {
		t.Errorf("KeyPrefix = %s, want vigil:", cfg.KeyPrefix)
	}
	if cfg.MaxLen != 500 {
		t.Errorf("MaxLen = %d, want 500", cfg.MaxLen)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []ConfigOption{
		WithAddress("redis.example.com:6380"),
		WithPassword("p@ss"),
		WithDB(2),
		WithKeyPrefix("home:"),
		WithPoolSize(4),
		WithTimeouts(time.Second, 2*time.Second, 3*time.Second),
		WithMaxLen(40),
	} {
		opt(&cfg)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Address", cfg.Address, "redis.example.com:6380"},
		{"Password", cfg.Password, "p@ss"},
		{"DB", cfg.DB, 2},
		{"KeyPrefix", cfg.KeyPrefix, "home:"},
		{"PoolSize", cfg.PoolSize, 4},
		{"DialTimeout", cfg.DialTimeout, time.Second},
		{"ReadTimeout", cfg.ReadTimeout, 2 * time.Second},
		{"WriteTimeout", cfg.WriteTimeout, 3 * time.Second},
		{"MaxLen", cfg.MaxLen, 40},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestNewHistoryStoreFromClient(t *testing.T) {
	t.Parallel()

	s := NewHistoryStoreFromClient(nil, "myapp:", 10)
	if s.keyPrefix != "myapp:" {
		t.Errorf("keyPrefix = %s, want myapp:", s.keyPrefix)
	}
	if s.maxLen != 10 {
		t.Errorf("maxLen = %d, want 10", s.maxLen)
	}
	if got := s.historyKey(); got != "myapp:history" {
		t.Errorf("historyKey() = %s, want myapp:history", got)
	}
}

func TestHistoryStore_ValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	// A nil client would panic if the store reached the network.
	s := NewHistoryStoreFromClient(nil, "vigil:", 10)
	ctx := context.Background()

	if err := s.Append(ctx, conversation.Exchange{Prompt: "p"}); !errors.Is(err, memory.ErrInvalidExchange) {
		t.Errorf("Append() error = %v, want ErrInvalidExchange", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Recent(cancelled, 5); !errors.Is(err, context.Canceled) {
		t.Errorf("Recent() error = %v, want context.Canceled", err)
	}
	if err := s.Clear(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Clear() error = %v, want context.Canceled", err)
	}
}

func TestNewHistoryStore_ConnectionFailed(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond
	cfg.MaxRetries = -1

	_, err := NewHistoryStore(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("NewHistoryStore() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	if wrapError(nil) != nil {
		t.Error("wrapError(nil) should be nil")
	}
	if err := wrapError(context.DeadlineExceeded); !errors.Is(err, ErrOperationTimeout) {
		t.Errorf("wrapError(deadline) = %v, want ErrOperationTimeout", err)
	}
	plain := errors.New("boom")
	if err := wrapError(plain); err != plain {
		t.Errorf("wrapError(plain) = %v, want passthrough", err)
	}
}
