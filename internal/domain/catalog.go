package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	BaseCredits decimal.Decimal
	ImageURL    *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductVariant struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	Size            string
	Color           string
	CreditsModifier decimal.Decimal
	CreatedAt       time.Time
}

// UnitCredits is the price of one unit of the variant at lookup time.
func (v ProductVariant) UnitCredits(base decimal.Decimal) decimal.Decimal {
	return base.Add(v.CreditsModifier)
}

// InventoryRecord tracks stock for one variant. ReservedQuantity is the
// portion promised to pending orders but not yet deducted; the store keeps
// 0 <= ReservedQuantity <= Quantity at all times.
type InventoryRecord struct {
	ID               uuid.UUID
	VariantID        uuid.UUID
	Quantity         int
	ReservedQuantity int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r InventoryRecord) Available() int {
	return r.Quantity - r.ReservedQuantity
}
