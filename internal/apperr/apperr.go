// Package apperr holds the error categories shared by services and the
// HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation is returned before any request reaches the database.
type Validation struct {
	Problems []string
}

func (v *Validation) Error() string {
	return strings.Join(v.Problems, "; ")
}

// Invalid builds a Validation error from a formatted message.
func Invalid(format string, args ...any) error {
	return &Validation{Problems: []string{fmt.Sprintf(format, args...)}}
}

// IsValidation reports whether err is, or wraps, a *Validation.
func IsValidation(err error) bool {
	var v *Validation
	return errors.As(err, &v)
}

// NotFound wraps ErrNotFound with the missing thing's description.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Conflict wraps ErrConflict with a user-facing message.
func Conflict(msg string) error {
	return &conflict{msg: msg}
}

type conflict struct{ msg string }

func (c *conflict) Error() string { return c.msg }
func (c *conflict) Unwrap() error { return ErrConflict }
