package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/perkstore/perkstore/internal/auth"
	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
	"github.com/perkstore/perkstore/internal/service/order"
)

type orderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, items []order.ItemRequest) (*domain.Order, error)
	GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error)
}

type OrderHandler struct {
	orders orderService
}

func NewOrderHandler(orders orderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items []createOrderItem `json:"items"`
}

func (r createOrderRequest) Validate() []FieldError {
	var errs []FieldError

	if len(r.Items) == 0 {
		errs = append(errs, FieldError{Field: "items", Message: "required"})
		return errs
	}

	for i, item := range r.Items {
		if _, err := uuid.Parse(item.VariantID); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].variant_id", i),
				Message: "must be a valid uuid",
			})
		}
		if item.Quantity <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "must be greater than 0",
			})
		}
	}
	return errs
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	items := make([]order.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		variantID, _ := uuid.Parse(item.VariantID)
		items = append(items, order.ItemRequest{
			VariantID: variantID,
			Quantity:  item.Quantity,
		})
	}

	o, err := h.orders.CreateOrder(r.Context(), id.UserID, items)
	if err != nil {
		log.Warn("order creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/orders/%s", o.ID))
	RespondSuccess(w, http.StatusCreated, toOrderDTO(o))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := pagination(r)
	orders, err := h.orders.ListOrders(r.Context(), id.UserID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("order list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]orderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, toOrderDTO(&orders[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	o, err := h.orders.GetOrderForUser(r.Context(), orderID, id.UserID, id.IsAdmin())
	if err != nil {
		logging.FromContext(r.Context()).Warn("order lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}
