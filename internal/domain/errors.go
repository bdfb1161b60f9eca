package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user is inactive")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrEmptyOrder      = errors.New("order must contain at least one item")

	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientCredits = errors.New("insufficient credits")

	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")

	// Invariant violations. These indicate corrupted bookkeeping outside the
	// engine's control path; the enclosing transaction aborts and they are
	// never retried.
	ErrInsufficientReservation = errors.New("reserved stock below committed quantity")
	ErrReservationUnderflow    = errors.New("reservation release would go negative")
	ErrBelowReserved           = errors.New("stock cannot drop below reserved quantity")
)
