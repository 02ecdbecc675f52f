package contracts

import (
	"errors"
	"fmt"
)

// Kind classifies a local, non-propagating failure
type Kind string

const (
	KindDataUnavailable     Kind = "DataUnavailable"
	KindInsufficientData    Kind = "InsufficientData"
	KindMissingColumn       Kind = "MissingColumn"
	KindDataQuality         Kind = "DataQuality"
	KindProviderError       Kind = "ProviderError"
	KindNotificationFailure Kind = "NotificationFailure"
)

// Error is a typed failure tied to a symbol (may be empty)
type Error struct {
	Kind   Kind
	Symbol string
	Err    error
}

func (e *Error) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Symbol, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a typed failure
func Errorf(kind Kind, symbol, format string, args ...interface{}) error {
	return &Error{Kind: kind, Symbol: symbol, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with kind unless it already carries one
func Wrap(kind Kind, symbol string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Symbol: symbol, Err: err}
}

// KindOf extracts the failure kind from err
func KindOf(err error) (Kind, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries kind
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
