package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/service"
)

type catalogReader interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*service.ProductWithVariants, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*domain.ProductVariant, error)
}

type ProductHandler struct {
	catalog catalogReader
}

func NewProductHandler(catalog catalogReader) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), true)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]productDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, toProductDTO(p))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toProductDetailDTO(p))
}

func (h *ProductHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	v, err := h.catalog.GetVariant(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toVariantDTO(*v))
}
