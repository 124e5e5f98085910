package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInsufficientSupply = errors.New("insufficient supply to fill the requested quantity")
	ErrNoSupply           = errors.New("project has no purchasable supply")
	ErrQuoteNotFound      = errors.New("quote not found")
	ErrQuoteExpired       = errors.New("quote has expired")
	ErrQuoteOwnership     = errors.New("quote belongs to a different user")
	ErrQuoteAlreadyUsed   = errors.New("quote has already been used")
)

// ValidationError collects field-level problems with a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
