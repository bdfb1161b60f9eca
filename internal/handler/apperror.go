package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Admin access required"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientCredits = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_CREDITS", "Insufficient credits"}
	ErrInsufficientStock   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Insufficient stock for requested variant"}
	ErrVariantNotFound     = &AppError{http.StatusUnprocessableEntity, "VARIANT_NOT_FOUND", "Variant not found"}
	ErrEmptyOrder          = &AppError{http.StatusBadRequest, "EMPTY_ORDER", "Order must contain at least one item"}
	ErrInvalidQuantity     = &AppError{http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be greater than zero"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}

	ErrOrderNotPending = &AppError{http.StatusConflict, "ORDER_NOT_PENDING", "Order has already been decided"}
	ErrBelowReserved   = &AppError{http.StatusUnprocessableEntity, "BELOW_RESERVED", "Stock cannot drop below reserved quantity"}
	ErrUserInactive    = &AppError{http.StatusForbidden, "USER_INACTIVE", "User account is inactive"}
)
