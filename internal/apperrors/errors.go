// Package apperrors defines the domain error taxonomy. These are business
// level errors, not system errors; the HTTP layer translates each kind to
// the corresponding status code.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindValidation — malformed input (non-positive amount, wrong-length
	// card number, missing required field). Maps to 400.
	KindValidation Kind = iota
	// KindNotFound — unknown account, request or user. Maps to 404.
	KindNotFound
	// KindForbidden — ownership mismatch. Maps to 403.
	KindForbidden
	// KindLocked — card is BLOCKED. Maps to 423.
	KindLocked
	// KindUnprocessable — expired card, insufficient funds, limit exceeded.
	// Maps to 422.
	KindUnprocessable
	// KindCrypto — vault decoding or decryption failure. Maps to 500.
	KindCrypto
	// KindConflict — duplicate card number. Maps to 409.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindLocked:
		return "locked"
	case KindUnprocessable:
		return "unprocessable"
	case KindCrypto:
		return "crypto"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a kind-tagged domain error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New builds a domain error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind of a domain error. The second return value is
// false if err is not a domain error (infrastructure errors stay untyped).
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
