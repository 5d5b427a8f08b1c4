package memory

import (
	"errors"

	"github.com/felixgeelhaar/vigil/domain/conversation"
)

// Domain errors for memory stores.
var (
	// ErrInvalidExchange is returned when an exchange has no prompt or answer.
	ErrInvalidExchange = errors.New("invalid exchange")

	// ErrExchangeExists is returned when an exchange id is already stored.
	ErrExchangeExists = errors.New("exchange already exists")

	// ErrStoreClosed is returned when a store is used after Close.
	ErrStoreClosed = errors.New("memory store closed")
)

// ValidateExchange checks the fields every backend requires.
func ValidateExchange(e conversation.Exchange) error {
	if e.Prompt == "" || e.Answer == "" {
		return ErrInvalidExchange
	}
	return nil
}
