package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/vigil/domain/orchestration"
	"github.com/felixgeelhaar/vigil/infrastructure/provider"
	api "github.com/felixgeelhaar/vigil/interfaces/api"
)

const validConfig = `
name: test
providers:
  - id: openai
    kind: openai
    api_key: sk-test
  - id: claude
    kind: anthropic
    api_key: sk-ant-test
  - id: gemini
    kind: poe
    api_key: poe-test
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func scriptedApp(stdout, stderr *bytes.Buffer, adapters ...api.Adapter) *App {
	if len(adapters) == 0 {
		adapters = []api.Adapter{
			provider.NewScriptedAdapter("openai", provider.WithAnswer("A")),
			provider.NewScriptedAdapter("claude", provider.WithAnswer("B")),
			provider.NewScriptedAdapter("gemini", provider.WithAnswer("C")),
		}
	}
	return New().WithOutput(stdout, stderr).WithBuildOptions(api.WithAdapters(adapters...))
}

func TestApp_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"version"})
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "vigil version") {
		t.Errorf("version output missing 'vigil version', got: %s", output)
	}
}

func TestApp_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"--help"})
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{"LLM providers", "ask", "chat", "history", "validate"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_Validate(t *testing.T) {
	configPath := writeConfig(t, validConfig)

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"validate", "-c", configPath})
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "valid") {
		t.Errorf("validate output missing 'valid', got: %s", output)
	}
	if !strings.Contains(output, "openai") {
		t.Errorf("validate output missing provider summary, got: %s", output)
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown kind",
			content: `
providers:
  - id: x
    kind: mistral
    api_key: k
`,
		},
		{
			name:    "no providers",
			content: "name: empty\n",
		},
		{
			name: "no credentials",
			content: `
providers:
  - id: openai
    kind: openai
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.content)

			var stdout, stderr bytes.Buffer
			app := New().WithOutput(&stdout, &stderr)

			err := app.ExecuteWithArgs(context.Background(), []string{"validate", "-c", configPath})
			if err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestApp_ValidateShowSchema(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"validate", "--schema"})
	if err != nil {
		t.Fatalf("validate --schema failed: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "$schema") {
		t.Errorf("schema output missing '$schema', got: %s", output)
	}
}

func TestApp_ExportSchemaToFile(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "schema.json")

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"export-schema", "-o", schemaPath})
	if err != nil {
		t.Fatalf("export-schema -o failed: %v", err)
	}

	data, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("failed to read schema file: %v", err)
	}
	if !strings.Contains(string(data), "providers") {
		t.Errorf("schema file missing 'providers', got: %s", data)
	}
}

func TestApp_Ask(t *testing.T) {
	configPath := writeConfig(t, validConfig)

	var stdout, stderr bytes.Buffer
	app := scriptedApp(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"ask", "-c", configPath, "--mode", "trinity", "2+2?"})
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}

	output := stdout.String()
	if !strings.HasPrefix(output, "A\n") {
		t.Errorf("ask output should start with the answer, got: %s", output)
	}
	if !strings.Contains(output, "agreed: openai, claude, gemini") {
		t.Errorf("ask output missing agreeing providers, got: %s", output)
	}
}

func TestApp_AskJSON(t *testing.T) {
	configPath := writeConfig(t, validConfig)

	var stdout, stderr bytes.Buffer
	app := scriptedApp(&stdout, &stderr)

	err := app.ExecuteWithArgs(context.Background(), []string{"ask", "-c", configPath, "--provider", "claude", "--json", "hi"})
	if err != nil {
		t.Fatalf("ask --json failed: %v", err)
	}

	var resp responseJSON
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if resp.Text != "B" {
		t.Errorf("Text = %q, want B", resp.Text)
	}
	if resp.Source != "claude" {
		t.Errorf("Source = %q, want claude", resp.Source)
	}
	if resp.RequestID == "" {
		t.Error("RequestID should be set")
	}
}

func TestApp_AskStdin(t *testing.T) {
	configPath := writeConfig(t, validConfig)

	var stdout, stderr bytes.Buffer
	app := scriptedApp(&stdout, &stderr).WithInput(strings.NewReader("  from stdin \n"))

	err := app.ExecuteWithArgs(context.Background(), []string{"ask", "-c", configPath})
	if err != nil {
		t.Fatalf("ask from stdin failed: %v", err)
	}

	if !strings.HasPrefix(stdout.String(), "A\n") {
		t.Errorf("ask output should start with the answer, got: %s", stdout.String())
	}
}

func TestApp_AskFailure(t *testing.T) {
	configPath := writeConfig(t, validConfig)

	var stdout, stderr bytes.Buffer
	app := scriptedApp(&stdout, &stderr,
		provider.NewScriptedAdapter("openai", provider.WithError(errors.New("rate limited"))),
	)

	err := app.ExecuteWithArgs(context.Background(), []string{"ask", "-c", configPath, "hello"})
	if !errors.Is(err, orchestration.ErrAllProvidersFailed) {
		t.Errorf("ask error = %v, want ErrAllProvidersFailed", err)
	}
}

func TestApp_AskMissingConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := scriptedApp(&stdout, &stderr)

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	err := app.ExecuteWithArgs(context.Background(), []string{"ask", "-c", missing, "hello"})
	if err == nil {
		t.Fatal("expected ask to fail without a configuration file")
	}
	if !strings.Contains(err.Error(), "failed to load configuration") {
		t.Errorf("error = %v, want configuration failure", err)
	}
}

func TestApp_Chat(t *testing.T) {
	configPath := writeConfig(t, validConfig)

	script := strings.Join([]string{
		"hello",
		"",
		"/mode trinity",
		"hello again",
		"/mode quartet",
		"/stats",
		"/clear",
		"/bogus",
		"/quit",
		"never asked",
	}, "\n")

	var stdout, stderr bytes.Buffer
	app := scriptedApp(&stdout, &stderr).WithInput(strings.NewReader(script))

	err := app.ExecuteWithArgs(context.Background(), []string{"chat", "-c", configPath})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{
		"mode single",
		"mode: trinity",
		"unknown mode \"quartet\"",
		"requests:      2 (0 failed)",
		"trinity:       openai, claude, gemini",
		"conversation cleared",
		"unknown command /bogus",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("chat output missing %q, got: %s", want, output)
		}
	}
}

func TestApp_ChatEndOfInput(t *testing.T) {
	configPath := writeConfig(t, validConfig)

	var stdout, stderr bytes.Buffer
	app := scriptedApp(&stdout, &stderr).WithInput(strings.NewReader("hello"))

	err := app.ExecuteWithArgs(context.Background(), []string{"chat", "-c", configPath})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "A\n") {
		t.Errorf("chat output missing answer, got: %s", stdout.String())
	}
}

func TestApp_History(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, validConfig+`
memory:
  backend: sqlite
  dsn: "file:`+filepath.Join(dir, "history.db")+`?mode=rwc"
`)

	for _, prompt := range []string{"first question", "second question"} {
		var stdout, stderr bytes.Buffer
		app := scriptedApp(&stdout, &stderr)
		if err := app.ExecuteWithArgs(context.Background(), []string{"ask", "-c", configPath, prompt}); err != nil {
			t.Fatalf("ask %q failed: %v", prompt, err)
		}
	}

	t.Run("list", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		app := New().WithOutput(&stdout, &stderr)

		err := app.ExecuteWithArgs(context.Background(), []string{"history", "-c", configPath})
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}

		output := stdout.String()
		first := strings.Index(output, "first question")
		second := strings.Index(output, "second question")
		if first < 0 || second < 0 {
			t.Fatalf("history output missing exchanges, got: %s", output)
		}
		if first > second {
			t.Errorf("history should list oldest first, got: %s", output)
		}
	})

	t.Run("json limit", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		app := New().WithOutput(&stdout, &stderr)

		err := app.ExecuteWithArgs(context.Background(), []string{"history", "-c", configPath, "-n", "1", "--json"})
		if err != nil {
			t.Fatalf("history --json failed: %v", err)
		}

		var exchanges []struct {
			Prompt string `json:"prompt"`
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(stdout.Bytes(), &exchanges); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
		}
		if len(exchanges) != 1 {
			t.Fatalf("len(exchanges) = %d, want 1", len(exchanges))
		}
		if exchanges[0].Prompt != "second question" || exchanges[0].Answer != "A" {
			t.Errorf("exchange = %+v, want second question/A", exchanges[0])
		}
	})

	t.Run("clear", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		app := New().WithOutput(&stdout, &stderr)

		if err := app.ExecuteWithArgs(context.Background(), []string{"history", "-c", configPath, "--clear"}); err != nil {
			t.Fatalf("history --clear failed: %v", err)
		}

		stdout.Reset()
		app = New().WithOutput(&stdout, &stderr)
		if err := app.ExecuteWithArgs(context.Background(), []string{"history", "-c", configPath}); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(stdout.String(), "no exchanges recorded") {
			t.Errorf("history should be empty after clear, got: %s", stdout.String())
		}
	})
}
