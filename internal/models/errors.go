package models

import "github.com/cockroachdb/errors"

// ErrValidation marks errors caused by malformed caller input. They are
// surfaced immediately and never retried.
var ErrValidation = errors.New("validation error")

func ValidationErrorf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
