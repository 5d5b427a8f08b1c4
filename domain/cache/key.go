package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/felixgeelhaar/vigil/domain/conversation"
)

// Key is a hex encoded SHA-256 digest identifying a prompt in its context.
type Key string

// String returns the key as a string.
func (k Key) String() string {
	return string(k)
}

// Short returns the first 12 characters for logging.
func (k Key) Short() string {
	if len(k) <= 12 {
		return string(k)
	}
	return string(k[:12])
}

// Normalize trims the prompt and collapses internal whitespace runs to one space.
func Normalize(prompt string) string {
	return strings.Join(strings.Fields(prompt), " ")
}

// NewKey derives the cache key for a prompt answered in the given mode with
// the given context window. Field separators keep distinct inputs from
// producing the same byte stream.
func NewKey(prompt, mode string, window conversation.Context) Key {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(Normalize(prompt)))
	h.Write([]byte{0})
	for _, turn := range window {
		h.Write([]byte(turn.Role))
		h.Write([]byte{0x1f})
		h.Write([]byte(Normalize(turn.Text)))
		h.Write([]byte{0x1e})
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}
