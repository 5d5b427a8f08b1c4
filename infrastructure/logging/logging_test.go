package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := bolt.NewJSONHandler(buf)
	logger := bolt.New(handler).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
}

func TestProductionConfig(t *testing.T) {
	t.Parallel()

	config := ProductionConfig()

	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
		valid    bool
	}{
		{"trace", bolt.TRACE, true},
		{"debug", bolt.DEBUG, true},
		{"info", bolt.INFO, true},
		{"warn", bolt.WARN, true},
		{"error", bolt.ERROR, true},
		{"unknown", bolt.INFO, false},
		{"", bolt.INFO, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if result := parseLevel(tt.input); result != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, result, tt.expected)
			}
			if got := ValidLevel(tt.input); got != tt.valid {
				t.Errorf("ValidLevel(%s) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"request id", RequestID("req-1"), `"request_id":"req-1"`},
		{"provider", Provider("openai"), `"provider":"openai"`},
		{"mode", Mode(orchestration.ModeTrinity), `"mode":"trinity"`},
		{"status", Status(orchestration.StatusTimeout), `"status":"timeout"`},
		{"cache hit", CacheHit(true), `"cache_hit":true`},
		{"cache miss", CacheHit(false), `"cache_hit":false`},
		{"duration", Duration(1500 * time.Millisecond), `"duration_ms":1500`},
		{"state", State(orchestration.StateDispatching), `"state":"dispatching"`},
		{"from state", FromState(orchestration.StateValidating), `"from_state":"validating"`},
		{"to state", ToState(orchestration.StateCacheLookup), `"to_state":"cache_lookup"`},
		{"contributors", Contributors([]string{"A", "C"}), `"contributors":"A,C"`},
		{"count", Count("turns", 12), `"turns":12`},
		{"error", ErrorField(errors.New("test error")), `"error":"test error"`},
		{"component", Component("orchestrator"), `"component":"orchestrator"`},
		{"operation", Operation("handle"), `"operation":"handle"`},
		{"custom", Str("custom_key", "custom_value"), `"custom_key":"custom_value"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			if tt.field == nil {
				t.Fatal("field constructor returned nil")
			}

			tt.field(logger.Info()).Msg("test")

			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestErrorField_Nil(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(nil)(logger.Info()).Msg("test")

	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("unexpected error field in output: %s", buf.String())
	}
}

func TestLogEvent(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()

	t.Run("Add chains fields", func(t *testing.T) {
		buf.Reset()
		event := NewEvent(logger.Info())
		event.Add(RequestID("req-1")).Add(State(orchestration.StateReducing)).Msg("test")

		if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-1"`)) {
			t.Errorf("expected request_id field in output: %s", buf.String())
		}
		if !bytes.Contains(buf.Bytes(), []byte(`"state":"reducing"`)) {
			t.Errorf("expected state field in output: %s", buf.String())
		}
	})

	t.Run("Send without message", func(t *testing.T) {
		buf.Reset()
		NewEvent(logger.Info()).Add(RequestID("req-2")).Send()

		if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-2"`)) {
			t.Errorf("expected request_id field in output: %s", buf.String())
		}
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := New(Config{Level: "warn", Format: "json", Output: buf})

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("info message should be filtered at warn: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("warn message missing: %s", buf.String())
	}
}

// TestInitAndSetLevel replaces the global logger; it does not run in parallel.
func TestInitAndSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Config{Level: "error", Format: "json", Output: buf})
	defer Init(Config{Level: "info", Format: "json", Output: bytes.NewBuffer(nil)})

	Info().Msg("filtered")
	if buf.Len() != 0 {
		t.Errorf("info message should be filtered at error: %s", buf.String())
	}

	SetLevel("debug")
	Debug().Add(Component("test")).Msg("visible")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"test"`)) {
		t.Errorf("debug message missing after SetLevel: %s", buf.String())
	}

	if Get() == nil {
		t.Fatal("Get() returned nil")
	}
	Trace().Msg("trace")
	Warn().Msg("warn")
	Error().Msg("error")
	if !bytes.Contains(buf.Bytes(), []byte("warn")) {
		t.Errorf("warn message missing: %s", buf.String())
	}
}
