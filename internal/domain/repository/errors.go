package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResult means the provider answered but returned no usable rows.
	ErrEmptyResult = errors.New("provider returned no rows")
	// ErrSchemaMismatch means the provider payload is missing required fields.
	ErrSchemaMismatch = errors.New("provider schema mismatch")
	ErrNotFound    = errors.New("not found")
	ErrInvalidCode = errors.New("invalid instrument code")
	// ErrInsufficientData means there is not enough history for the indicators asked for.
	ErrInsufficientData = errors.New("insufficient history")
	// ErrNoSnapshot is returned to readers before the first good refresh.
	ErrNoSnapshot = errors.New("no market snapshot available yet")
)

// SchemaError names the fields that were missing from a provider payload.
type SchemaError struct {
	Endpoint string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s missing fields [%s]", ErrSchemaMismatch, e.Endpoint, strings.Join(e.Missing, ","))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }

// ErrorKind buckets an error for metrics labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema"
	case errors.Is(err, ErrEmptyResult):
		return "empty"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient"
	default:
		return "transport"
	}
}
