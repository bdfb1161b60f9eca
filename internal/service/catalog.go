package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
)

// ProductWithVariants is a catalog read model: a product, its variants and
// their current availability.
type ProductWithVariants struct {
	Product  domain.Product
	Variants []VariantWithAvailability
}

type VariantWithAvailability struct {
	Variant   domain.ProductVariant
	Available int
}

type CatalogService struct {
	catalog   catalogRepository
	inventory inventoryRepository
}

func NewCatalogService(catalog catalogRepository, inventory inventoryRepository) *CatalogService {
	return &CatalogService{catalog: catalog, inventory: inventory}
}

func (s *CatalogService) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ListProducts: %w", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductWithVariants, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetProduct: %w", err)
	}

	variants, err := s.catalog.ListVariantsByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetProduct: %w", err)
	}

	result := &ProductWithVariants{Product: *p}
	for _, v := range variants {
		available := 0
		if rec, err := s.inventory.GetByVariant(ctx, v.ID); err == nil {
			available = rec.Available()
		}
		result.Variants = append(result.Variants, VariantWithAvailability{
			Variant:   v,
			Available: available,
		})
	}
	return result, nil
}

func (s *CatalogService) GetVariant(ctx context.Context, id uuid.UUID) (*domain.ProductVariant, error) {
	v, err := s.catalog.GetVariant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetVariant: %w", err)
	}
	return v, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	BaseCredits decimal.Decimal
	ImageURL    *string
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	p := &domain.Product{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		BaseCredits: in.BaseCredits,
		ImageURL:    in.ImageURL,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.catalog.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("CreateProduct: %w", err)
	}
	return p, nil
}

type UpdateProductInput struct {
	Name        string
	Description string
	BaseCredits decimal.Decimal
	ImageURL    *string
	IsActive    bool
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in UpdateProductInput) (*domain.Product, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateProduct: %w", err)
	}

	p.Name = in.Name
	p.Description = in.Description
	p.BaseCredits = in.BaseCredits
	p.ImageURL = in.ImageURL
	p.IsActive = in.IsActive
	p.UpdatedAt = time.Now().UTC()

	if err := s.catalog.UpdateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("UpdateProduct: %w", err)
	}
	return p, nil
}

type CreateVariantInput struct {
	Size            string
	Color           string
	CreditsModifier decimal.Decimal
}

func (s *CatalogService) CreateVariant(ctx context.Context, productID uuid.UUID, in CreateVariantInput) (*domain.ProductVariant, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, fmt.Errorf("CreateVariant: %w", err)
	}

	v := &domain.ProductVariant{
		ID:              uuid.New(),
		ProductID:       productID,
		Size:            in.Size,
		Color:           in.Color,
		CreditsModifier: in.CreditsModifier,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.catalog.CreateVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("CreateVariant: %w", err)
	}
	return v, nil
}
