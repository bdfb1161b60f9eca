package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
)

const productColumns = `id, name, description, base_credits, image_url, is_active, created_at, updated_at`
const variantColumns = `id, product_id, size, color, credits_modifier, created_at`

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, base_credits, image_url, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.BaseCredits, p.ImageURL, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateProduct: %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET name = $2, description = $3, base_credits = $4, image_url = $5, is_active = $6, updated_at = $7
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.BaseCredits, p.ImageURL, p.IsActive, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("UpdateProduct: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateProduct: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdateProduct: %w", domain.ErrProductNotFound)
	}
	return nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetProduct: %w", domain.ErrProductNotFound)
		}
		return nil, fmt.Errorf("GetProduct: %w", err)
	}
	return p, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListProducts: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ListProducts: scan: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListProducts: rows: %w", err)
	}
	return products, nil
}

func (r *CatalogRepository) CreateVariant(ctx context.Context, v *domain.ProductVariant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_variants (id, product_id, size, color, credits_modifier, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.ProductID, v.Size, v.Color, v.CreditsModifier, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateVariant: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetVariant(ctx context.Context, id uuid.UUID) (*domain.ProductVariant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id,
	)
	v, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetVariant: %w", domain.ErrVariantNotFound)
		}
		return nil, fmt.Errorf("GetVariant: %w", err)
	}
	return v, nil
}

func (r *CatalogRepository) ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]domain.ProductVariant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+variantColumns+` FROM product_variants WHERE product_id = $1 ORDER BY created_at`,
		productID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListVariantsByProduct: %w", err)
	}
	defer rows.Close()

	var variants []domain.ProductVariant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("ListVariantsByProduct: scan: %w", err)
		}
		variants = append(variants, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListVariantsByProduct: rows: %w", err)
	}
	return variants, nil
}

// ResolvePrice returns the product and unit price for a variant:
// base_credits plus the variant's credits_modifier.
func (r *CatalogRepository) ResolvePrice(ctx context.Context, variantID uuid.UUID) (uuid.UUID, decimal.Decimal, error) {
	var productID uuid.UUID
	var unitCredits decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.base_credits + v.credits_modifier
		 FROM product_variants v
		 JOIN products p ON p.id = v.product_id
		 WHERE v.id = $1`, variantID,
	).Scan(&productID, &unitCredits)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, decimal.Zero, fmt.Errorf("ResolvePrice: %w", domain.ErrVariantNotFound)
		}
		return uuid.Nil, decimal.Zero, fmt.Errorf("ResolvePrice: %w", err)
	}
	return productID, unitCredits, nil
}

func scanProduct(s scanner) (*domain.Product, error) {
	var p domain.Product
	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &p.BaseCredits,
		&p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanVariant(s scanner) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	err := s.Scan(
		&v.ID, &v.ProductID, &v.Size, &v.Color, &v.CreditsModifier, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
