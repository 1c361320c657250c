package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// Error is a request-scoped failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Messages shared by cart, catalog and orders.
const (
	MsgInvalidID         = "invalid id format"
	MsgInsufficientStock = "Insufficient stock"
	MsgProductNotFound   = "Product not found"
	MsgCartNotFound      = "Cart not found"
	MsgItemNotInCart     = "Item not found in cart"
	MsgOrderNotFound     = "Order not found"
)

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsValidation(err error) bool { return is(err, KindValidation) }

func IsNotFound(err error) bool { return is(err, KindNotFound) }

func IsConflict(err error) bool { return is(err, KindConflict) }

func is(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// CheckIDs fails with MsgInvalidID when any id is not a UUID.
func CheckIDs(ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return Validation(MsgInvalidID)
		}
	}
	return nil
}

// MaxAmountScale is the number of fractional digits money amounts may carry.
const MaxAmountScale = 2

// CheckAmount rejects negative amounts and amounts with more than
// MaxAmountScale fractional digits.
func CheckAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return Validationf("%s must not be negative", field)
	}
	if !d.Equal(d.Round(MaxAmountScale)) {
		return Validationf("%s must have at most %d decimal places", field, MaxAmountScale)
	}
	return nil
}
