package service

import (
	"errors"
	"fmt"

	"shopkeeper/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorKind discriminates the failures a service operation can report
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindEmptyCart         ErrorKind = "empty_cart"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindValidation        ErrorKind = "validation_error"
	KindConflict          ErrorKind = "conflict"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindInternal          ErrorKind = "internal_error"
)

// Error is the typed failure returned by every service operation. Fields
// beyond Kind and Message are set only where they apply.
type Error struct {
	Kind    ErrorKind
	Message string

	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
	// Applied counts lines whose stock change stayed committed before the
	// failure. It is always zero in atomic commit mode.
	Applied int

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so callers can compare against
// the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind == e.Kind
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrInternal          = &Error{Kind: KindInternal}
)

// KindOf returns the kind of err, or KindInternal for untyped errors
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func notFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// checkMoney rejects amounts the store cannot hold exactly: negatives, more
// than two decimal places, or values beyond NUMERIC(12,2).
func checkMoney(field string, d decimal.Decimal) *Error {
	switch {
	case d.IsNegative():
		return validation("%s must not be negative", field)
	case !domain.FitsMoneyScale(d):
		return validation("%s %s has more than %d decimal places", field, d, domain.MoneyScale)
	case !domain.FitsMoneyRange(d):
		return validation("%s %s exceeds the maximum amount %s", field, d, domain.MaxMoney)
	}
	return nil
}

func checkQuantity(field string, n int) *Error {
	if n > domain.MaxQuantity {
		return validation("%s %d exceeds the maximum %d", field, n, domain.MaxQuantity)
	}
	return nil
}
