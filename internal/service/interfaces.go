package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
)

type userRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	LockForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type ledgerRepository interface {
	Append(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	Balance(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error)
	HasEntries(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (bool, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type catalogRepository interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	CreateVariant(ctx context.Context, v *domain.ProductVariant) error
	GetVariant(ctx context.Context, id uuid.UUID) (*domain.ProductVariant, error)
	ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]domain.ProductVariant, error)
}

type inventoryRepository interface {
	GetByVariant(ctx context.Context, variantID uuid.UUID) (*domain.InventoryRecord, error)
	Adjust(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, delta int) (*domain.InventoryRecord, error)
	Upsert(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, quantity int) (*domain.InventoryRecord, error)
	Overview(ctx context.Context) ([]domain.InventoryRecord, error)
}
