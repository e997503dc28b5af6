package domain

import (
	"errors"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrBusinessRule = errors.New("business rule failed")
	ErrDelivery     = errors.New("delivery failed")
)

// Failure carries user-facing messages for a validation or business-rule
// failure. errors.Is matches on Kind.
type Failure struct {
	Kind     error
	Messages []string
}

func (f *Failure) Error() string {
	if len(f.Messages) == 0 {
		return f.Kind.Error()
	}
	return strings.Join(f.Messages, ", ")
}

func (f *Failure) Unwrap() error { return f.Kind }

func Invalid(msgs ...string) error { return &Failure{Kind: ErrValidation, Messages: msgs} }

func RuleFailed(msg string) error { return &Failure{Kind: ErrBusinessRule, Messages: []string{msg}} }

// Messages returns the user-facing messages of err, falling back to err.Error().
func Messages(err error) []string {
	var f *Failure
	if errors.As(err, &f) && len(f.Messages) > 0 {
		return f.Messages
	}
	return []string{err.Error()}
}
