package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	api "github.com/felixgeelhaar/vigil/interfaces/api"
)

type callJSON struct {
	Provider  string `json:"provider"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type failureJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type responseJSON struct {
	RequestID string       `json:"request_id"`
	Text      string       `json:"text,omitempty"`
	Source    string       `json:"source,omitempty"`
	Providers []string     `json:"providers,omitempty"`
	Mode      string       `json:"mode"`
	CacheHit  bool         `json:"cache_hit"`
	LatencyMS int64        `json:"latency_ms"`
	Calls     []callJSON   `json:"calls,omitempty"`
	Failure   *failureJSON `json:"failure,omitempty"`
}

func toJSON(resp api.Response) responseJSON {
	out := responseJSON{
		RequestID: resp.RequestID,
		Text:      resp.Text,
		Source:    resp.Source,
		Providers: resp.Providers,
		Mode:      string(resp.Mode),
		CacheHit:  resp.CacheHit,
		LatencyMS: resp.Latency.Milliseconds(),
	}
	for _, r := range resp.Results {
		c := callJSON{
			Provider:  r.Provider,
			Status:    string(r.Status),
			LatencyMS: r.Latency.Milliseconds(),
		}
		if r.Err != nil {
			c.Error = r.Err.Error()
		}
		out.Calls = append(out.Calls, c)
	}
	if resp.Failure != nil {
		out.Failure = &failureJSON{Kind: string(resp.Failure.Kind), Message: resp.Failure.Message}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe summarizes where an answer came from, e.g. "openai, 1.2s" or "cache, 3ms".
func describe(resp api.Response) string {
	source := resp.Source
	if resp.CacheHit {
		source = "cache"
	}
	parts := []string{source}
	if len(resp.Providers) > 1 {
		parts = append(parts, "agreed: "+strings.Join(resp.Providers, ", "))
	}
	parts = append(parts, resp.Latency.Round(time.Millisecond).String())
	return strings.Join(parts, ", ")
}

func writeAnswer(w io.Writer, resp api.Response) {
	_, _ = fmt.Fprintln(w, resp.Text)
	_, _ = fmt.Fprintf(w, "  [%s]\n", describe(resp))
}
