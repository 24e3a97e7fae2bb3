package services

import "errors"

// Kind classifies a business-rule failure. Infra errors (store transport,
// context cancellation) are returned as plain errors and never wrapped in
// a Kind; callers apply their own retry policy to those.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindForbidden
	KindValidation
)

// Error is the typed result every service operation uses for recoverable
// business failures, so callers can map them to user-facing responses
// deterministically.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func ErrNotFound(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func ErrConflict(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }
func ErrForbidden(msg string) error  { return &Error{Kind: KindForbidden, Message: msg} }
func ErrValidation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNotFound(err error) bool   { return kindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return kindOf(err) == KindConflict }
func IsForbidden(err error) bool  { return kindOf(err) == KindForbidden }
func IsValidation(err error) bool { return kindOf(err) == KindValidation }
