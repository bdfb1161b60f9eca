package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/auth"
	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type creditReader interface {
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type UserHandler struct {
	users   userGetter
	credits creditReader
}

func NewUserHandler(users userGetter, credits creditReader) *UserHandler {
	return &UserHandler{users: users, credits: credits}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	user, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	balance, err := h.credits.Balance(r.Context(), id.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Error("balance lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBalanceDTO(id.UserID, balance))
}

func (h *UserHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := pagination(r)
	entries, total, err := h.credits.History(r.Context(), id.UserID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("ledger lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLedgerPageDTO(entries, total, limit, offset))
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxPageSize)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
