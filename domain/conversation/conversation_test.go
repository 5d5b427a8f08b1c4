package conversation

import (
	"testing"
	"time"
)

func turns(n int) Context {
	ctx := make(Context, n)
	for i := range ctx {
		ctx[i] = Turn{Role: RoleUser, Text: string(rune('a' + i))}
	}
	return ctx
}

func TestRole_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role Role
		want bool
	}{
		{RoleSystem, true},
		{RoleUser, true},
		{RoleAssistant, true},
		{Role("tool"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		if got := tt.role.IsValid(); got != tt.want {
			t.Errorf("Role(%q).IsValid() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestContext_Last(t *testing.T) {
	t.Parallel()

	ctx := turns(5)

	t.Run("returns newest turns", func(t *testing.T) {
		t.Parallel()
		last := ctx.Last(2)
		if last.Len() != 2 {
			t.Fatalf("Len() = %d, want 2", last.Len())
		}
		if last[0].Text != "d" || last[1].Text != "e" {
			t.Errorf("Last(2) = %v, want d,e", last)
		}
	})

	t.Run("larger than length copies everything", func(t *testing.T) {
		t.Parallel()
		last := ctx.Last(10)
		if last.Len() != 5 {
			t.Errorf("Len() = %d, want 5", last.Len())
		}
	})

	t.Run("non-positive returns empty", func(t *testing.T) {
		t.Parallel()
		if got := ctx.Last(0).Len(); got != 0 {
			t.Errorf("Len() = %d, want 0", got)
		}
	})
}

func TestContext_Append(t *testing.T) {
	t.Parallel()

	base := turns(3)
	out := base.Append(4, Turn{Role: RoleUser, Text: "x"}, Turn{Role: RoleAssistant, Text: "y"})

	if out.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", out.Len())
	}
	if out[0].Text != "b" {
		t.Errorf("oldest turn = %s, want b", out[0].Text)
	}
	if out[3].Text != "y" {
		t.Errorf("newest turn = %s, want y", out[3].Text)
	}
	if base.Len() != 3 {
		t.Errorf("Append modified the receiver, Len() = %d", base.Len())
	}
}

func TestFromExchanges(t *testing.T) {
	t.Parallel()

	now := time.Now()
	exchanges := []Exchange{
		{Prompt: "p1", Answer: "a1", Timestamp: now},
		{Prompt: "p2", Answer: "a2", Timestamp: now},
		{Prompt: "p3", Answer: "a3", Timestamp: now},
	}

	t.Run("expands to turns", func(t *testing.T) {
		t.Parallel()
		ctx := FromExchanges(exchanges, 0)
		if ctx.Len() != 6 {
			t.Fatalf("Len() = %d, want 6", ctx.Len())
		}
		if ctx[0].Role != RoleUser || ctx[1].Role != RoleAssistant {
			t.Errorf("roles = %s,%s, want user,assistant", ctx[0].Role, ctx[1].Role)
		}
	})

	t.Run("caps at max turns", func(t *testing.T) {
		t.Parallel()
		ctx := FromExchanges(exchanges, 3)
		if ctx.Len() != 3 {
			t.Fatalf("Len() = %d, want 3", ctx.Len())
		}
		if ctx[0].Text != "a2" {
			t.Errorf("oldest turn = %s, want a2", ctx[0].Text)
		}
	})

	t.Run("empty input yields empty context", func(t *testing.T) {
		t.Parallel()
		ctx := FromExchanges(nil, 40)
		if ctx == nil || ctx.Len() != 0 {
			t.Errorf("FromExchanges(nil) = %v, want empty non-nil", ctx)
		}
	})
}
