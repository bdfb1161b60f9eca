package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
)

// InventoryService covers the admin-facing stock operations. Reservation
// lifecycle operations (reserve, release, commit) belong to the order engine
// and are not exposed here.
type InventoryService struct {
	inventory inventoryRepository
	catalog   catalogRepository
	db        *sql.DB
}

func NewInventoryService(inventory inventoryRepository, catalog catalogRepository, db *sql.DB) *InventoryService {
	return &InventoryService{inventory: inventory, catalog: catalog, db: db}
}

// Adjust applies a signed stock correction. Stock can never drop below the
// reserved watermark; that fails with ErrBelowReserved.
func (s *InventoryService) Adjust(ctx context.Context, variantID uuid.UUID, delta int, reason string) (*domain.InventoryRecord, error) {
	if _, err := s.catalog.GetVariant(ctx, variantID); err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Adjust: begin tx: %w", err)
	}
	defer tx.Rollback()

	rec, err := s.inventory.Adjust(ctx, tx, variantID, delta)
	if err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Adjust: commit: %w", err)
	}

	logging.FromContext(ctx).Info("inventory adjusted",
		"variant_id", variantID,
		"delta", delta,
		"new_quantity", rec.Quantity,
		"reason", reason,
	)
	return rec, nil
}

// SetQuantity creates or replaces the stock level for a variant.
func (s *InventoryService) SetQuantity(ctx context.Context, variantID uuid.UUID, quantity int) (*domain.InventoryRecord, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("SetQuantity: %w", domain.ErrInvalidQuantity)
	}
	if _, err := s.catalog.GetVariant(ctx, variantID); err != nil {
		return nil, fmt.Errorf("SetQuantity: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SetQuantity: begin tx: %w", err)
	}
	defer tx.Rollback()

	rec, err := s.inventory.Upsert(ctx, tx, variantID, quantity)
	if err != nil {
		return nil, fmt.Errorf("SetQuantity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SetQuantity: commit: %w", err)
	}
	return rec, nil
}

func (s *InventoryService) Overview(ctx context.Context) ([]domain.InventoryRecord, error) {
	records, err := s.inventory.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}
	return records, nil
}
