package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider is a text-generation service that answers with a field-keyed
// JSON object. prompt carries the fixed instruction, text the user content.
type Provider interface {
	GenerateStructured(ctx context.Context, prompt, text string) (map[string]any, error)
	Close() error
}

// ServiceError is returned by providers for upstream failures.
type ServiceError struct {
	Provider   string
	StatusCode int  // HTTP status or 0
	Transient  bool // network, 429, 5xx, upstream timeout
	Malformed  bool // the response was not a JSON object
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	case e.Malformed:
		return fmt.Sprintf("%s: malformed response: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Transient
}

// IsMalformed reports whether err came from an unparseable response.
func IsMalformed(err error) bool {
	var se *ServiceError
	return errors.As(err, &se) && se.Malformed
}

func transient(provider string, status int, err error) error {
	return &ServiceError{Provider: provider, StatusCode: status, Transient: true, Err: err}
}

func permanent(provider string, status int, err error) error {
	return &ServiceError{Provider: provider, StatusCode: status, Err: err}
}

func malformed(provider string, err error) error {
	return &ServiceError{Provider: provider, Malformed: true, Err: err}
}
