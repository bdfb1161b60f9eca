package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
	"github.com/perkstore/perkstore/internal/service"
)

type adminOrderService interface {
	FulfillOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	DenyOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error)
}

type adminCreditService interface {
	Grant(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.LedgerEntry, error)
	Adjust(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.LedgerEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type adminInventoryService interface {
	Adjust(ctx context.Context, variantID uuid.UUID, delta int, reason string) (*domain.InventoryRecord, error)
	SetQuantity(ctx context.Context, variantID uuid.UUID, quantity int) (*domain.InventoryRecord, error)
	Overview(ctx context.Context) ([]domain.InventoryRecord, error)
}

type adminCatalogService interface {
	CreateProduct(ctx context.Context, in service.CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in service.UpdateProductInput) (*domain.Product, error)
	CreateVariant(ctx context.Context, productID uuid.UUID, in service.CreateVariantInput) (*domain.ProductVariant, error)
}

type AdminHandler struct {
	orders    adminOrderService
	credits   adminCreditService
	inventory adminInventoryService
	catalog   adminCatalogService
}

func NewAdminHandler(orders adminOrderService, credits adminCreditService, inventory adminInventoryService, catalog adminCatalogService) *AdminHandler {
	return &AdminHandler{
		orders:    orders,
		credits:   credits,
		inventory: inventory,
		catalog:   catalog,
	}
}

func (h *AdminHandler) PendingOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	orders, err := h.orders.ListByStatus(r.Context(), domain.OrderStatusPending, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]orderDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, toOrderDTO(&orders[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AdminHandler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	o, err := h.orders.FulfillOrder(r.Context(), orderID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order fulfillment failed", "error", err, "order_id", orderID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}

type denyOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) DenyOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req denyOrderRequest
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	o, err := h.orders.DenyOrder(r.Context(), orderID, req.Reason)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order denial failed", "error", err, "order_id", orderID)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}

type grantCreditsRequest struct {
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (r grantCreditsRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.UserID); err != nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "must be a valid uuid"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if amt, err := decimal.NewFromString(r.Amount); err != nil || !amt.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive number"})
	}
	return errs
}

func (h *AdminHandler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	var req grantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	userID, _ := uuid.Parse(req.UserID)
	amount, _ := decimal.NewFromString(req.Amount)

	entry, err := h.credits.Grant(r.Context(), userID, amount, req.Description)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toLedgerEntryDTO(*entry))
}

type adjustCreditsRequest struct {
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (r adjustCreditsRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.UserID); err != nil {
		errs = append(errs, FieldError{Field: "user_id", Message: "must be a valid uuid"})
	}
	if r.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if amt, err := decimal.NewFromString(r.Amount); err != nil || amt.IsZero() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a non-zero number"})
	}
	if r.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	return errs
}

func (h *AdminHandler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	var req adjustCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	userID, _ := uuid.Parse(req.UserID)
	amount, _ := decimal.NewFromString(req.Amount)

	entry, err := h.credits.Adjust(r.Context(), userID, amount, req.Description)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toLedgerEntryDTO(*entry))
}

func (h *AdminHandler) UserBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	balance, err := h.credits.Balance(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBalanceDTO(userID, balance))
}

func (h *AdminHandler) UserLedger(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	limit, offset := pagination(r)
	entries, total, err := h.credits.History(r.Context(), userID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLedgerPageDTO(entries, total, limit, offset))
}

type adjustInventoryRequest struct {
	VariantID string `json:"variant_id"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
}

func (r adjustInventoryRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.VariantID); err != nil {
		errs = append(errs, FieldError{Field: "variant_id", Message: "must be a valid uuid"})
	}
	if r.Delta == 0 {
		errs = append(errs, FieldError{Field: "delta", Message: "must be non-zero"})
	}
	if r.Reason == "" {
		errs = append(errs, FieldError{Field: "reason", Message: "required"})
	}
	return errs
}

func (h *AdminHandler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req adjustInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	variantID, _ := uuid.Parse(req.VariantID)
	rec, err := h.inventory.Adjust(r.Context(), variantID, req.Delta, req.Reason)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toInventoryDTO(rec))
}

type setInventoryRequest struct {
	Quantity int `json:"quantity"`
}

func (h *AdminHandler) SetInventory(w http.ResponseWriter, r *http.Request) {
	variantID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req setInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Quantity < 0 {
		RespondValidationError(w, []FieldError{{Field: "quantity", Message: "must be zero or greater"}})
		return
	}

	rec, err := h.inventory.SetQuantity(r.Context(), variantID, req.Quantity)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toInventoryDTO(rec))
}

func (h *AdminHandler) InventoryOverview(w http.ResponseWriter, r *http.Request) {
	records, err := h.inventory.Overview(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]inventoryDTO, 0, len(records))
	for i := range records {
		dtos = append(dtos, toInventoryDTO(&records[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type createProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BaseCredits string  `json:"base_credits"`
	ImageURL    *string `json:"image_url"`
}

func (r createProductRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.BaseCredits == "" {
		errs = append(errs, FieldError{Field: "base_credits", Message: "required"})
	} else if c, err := decimal.NewFromString(r.BaseCredits); err != nil || c.IsNegative() {
		errs = append(errs, FieldError{Field: "base_credits", Message: "must be a non-negative number"})
	}
	return errs
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	baseCredits, _ := decimal.NewFromString(req.BaseCredits)
	p, err := h.catalog.CreateProduct(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		BaseCredits: baseCredits,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toProductDTO(*p))
}

type updateProductRequest struct {
	createProductRequest
	IsActive bool `json:"is_active"`
}

func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	baseCredits, _ := decimal.NewFromString(req.BaseCredits)
	p, err := h.catalog.UpdateProduct(r.Context(), productID, service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		BaseCredits: baseCredits,
		ImageURL:    req.ImageURL,
		IsActive:    req.IsActive,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toProductDTO(*p))
}

type createVariantRequest struct {
	Size            string `json:"size"`
	Color           string `json:"color"`
	CreditsModifier string `json:"credits_modifier"`
}

func (h *AdminHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req createVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	modifier := decimal.Zero
	if req.CreditsModifier != "" {
		m, err := decimal.NewFromString(req.CreditsModifier)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "credits_modifier", Message: "must be a number"}})
			return
		}
		modifier = m
	}

	v, err := h.catalog.CreateVariant(r.Context(), productID, service.CreateVariantInput{
		Size:            req.Size,
		Color:           req.Color,
		CreditsModifier: modifier,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toVariantDTO(*v))
}
