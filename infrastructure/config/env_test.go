package config

import (
	"errors"
	"strings"
	"testing"

	domainconfig "github.com/felixgeelhaar/vigil/domain/config"
)

func TestEnvExpander_Expand(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY": "sk-test",
		"EMPTY":          "",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bracket syntax", input: "${OPENAI_API_KEY}", want: "sk-test"},
		{name: "dollar syntax", input: "$OPENAI_API_KEY", want: "sk-test"},
		{name: "embedded in text", input: "key=${OPENAI_API_KEY};", want: "key=sk-test;"},
		{name: "unset expands empty", input: "[${NOPE}]", want: "[]"},
		{name: "default when unset", input: "${NOPE:-llama3.2}", want: "llama3.2"},
		{name: "default when empty", input: "${EMPTY:-fallback}", want: "fallback"},
		{name: "set ignores default", input: "${OPENAI_API_KEY:-other}", want: "sk-test"},
		{name: "url default", input: "${NOPE:-http://localhost:11434}", want: "http://localhost:11434"},
		{name: "no references", input: "plain text", want: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &envExpander{lookup: lookup}
			got, err := e.Expand(tt.input)
			if err != nil {
				t.Fatalf("Expand(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEnvExpander_Required(t *testing.T) {
	e := &envExpander{lookup: func(string) (string, bool) { return "", false }}

	_, err := e.Expand("api_key: ${ANTHROPIC_API_KEY:?anthropic key required}")
	if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Fatalf("Expand() error = %v, want ErrMissingEnvVar", err)
	}
	if !strings.Contains(err.Error(), "anthropic key required") {
		t.Errorf("error %q does not carry the message", err)
	}
}

func TestEnvExpander_Strict(t *testing.T) {
	e := &envExpander{strict: true, lookup: func(string) (string, bool) { return "", false }}

	_, err := e.Expand("${A} and $B")
	if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
		t.Fatalf("Expand() error = %v, want ErrMissingEnvVar", err)
	}
	if !strings.Contains(err.Error(), "A, B") {
		t.Errorf("error %q should list both variables", err)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("VIGIL_TEST_MODEL", "gpt-4o")

	if got := ExpandEnv("model: ${VIGIL_TEST_MODEL}"); got != "model: gpt-4o" {
		t.Errorf("ExpandEnv() = %q, want %q", got, "model: gpt-4o")
	}
	if _, err := ExpandEnvStrict("${VIGIL_TEST_UNSET_XYZ}"); err == nil {
		t.Error("ExpandEnvStrict() expected error for unset variable")
	}
}
