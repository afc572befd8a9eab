package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("entrepreneur not found")
	ErrForbidden          = errors.New("entrepreneur can only change its own profile")
	ErrEmailTaken         = errors.New("email already registered")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.FieldErrors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.FieldErrors == nil {
		e.FieldErrors = map[string]string{}
	}
	if _, ok := e.FieldErrors[field]; !ok {
		e.FieldErrors[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.FieldErrors) == 0 {
		return nil
	}
	return e
}
