package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/perkstore/perkstore/internal/domain"
)

const inventoryColumns = `id, variant_id, quantity, reserved_quantity, created_at, updated_at`

// InventoryRepository implements the two-phase stock model: reserve holds
// stock for a pending order, commit turns the hold into a permanent
// deduction, release returns it. All mutations are guarded updates so the
// 0 <= reserved_quantity <= quantity invariant cannot be broken even if a
// caller skips the row lock.
type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetByVariant(ctx context.Context, variantID uuid.UUID) (*domain.InventoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE variant_id = $1`, variantID,
	)
	rec, err := scanInventory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByVariant: %w", domain.ErrVariantNotFound)
		}
		return nil, fmt.Errorf("GetByVariant: %w", err)
	}
	return rec, nil
}

// GetForUpdate locks the variant's inventory row for the rest of the
// transaction. Callers locking several variants must do so in a consistent
// order to avoid deadlock.
func (r *InventoryRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, variantID uuid.UUID) (*domain.InventoryRecord, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE variant_id = $1 FOR UPDATE`, variantID,
	)
	rec, err := scanInventory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrVariantNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return rec, nil
}

// Reserve holds qty units for a pending order. Fails with
// ErrInsufficientStock when available stock (quantity - reserved) is short.
func (r *InventoryRepository) Reserve(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, qty int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET reserved_quantity = reserved_quantity + $2, updated_at = $3
		 WHERE variant_id = $1 AND quantity - reserved_quantity >= $2`,
		variantID, qty, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("Reserve: %w", err)
	}
	return r.guardResult(ctx, tx, res, variantID, domain.ErrInsufficientStock, "Reserve")
}

// Release returns qty units of a reservation. A release below zero means the
// bookkeeping is corrupt; it surfaces as ErrReservationUnderflow and must
// abort the transaction.
func (r *InventoryRepository) Release(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, qty int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET reserved_quantity = reserved_quantity - $2, updated_at = $3
		 WHERE variant_id = $1 AND reserved_quantity >= $2`,
		variantID, qty, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return r.guardResult(ctx, tx, res, variantID, domain.ErrReservationUnderflow, "Release")
}

// Commit converts qty units of reservation into a permanent deduction.
func (r *InventoryRepository) Commit(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, qty int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity - $2, reserved_quantity = reserved_quantity - $2, updated_at = $3
		 WHERE variant_id = $1 AND reserved_quantity >= $2`,
		variantID, qty, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("Commit: %w", err)
	}
	return r.guardResult(ctx, tx, res, variantID, domain.ErrInsufficientReservation, "Commit")
}

// Adjust applies an admin stock correction. The guard keeps quantity from
// dropping under the reserved watermark.
func (r *InventoryRepository) Adjust(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, delta int) (*domain.InventoryRecord, error) {
	row := tx.QueryRowContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity + $2, updated_at = $3
		 WHERE variant_id = $1 AND quantity + $2 >= reserved_quantity
		 RETURNING `+inventoryColumns,
		variantID, delta, time.Now().UTC(),
	)
	rec, err := scanInventory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, lookupErr := r.GetForUpdate(ctx, tx, variantID); lookupErr != nil {
				return nil, fmt.Errorf("Adjust: %w", lookupErr)
			}
			return nil, fmt.Errorf("Adjust: %w", domain.ErrBelowReserved)
		}
		return nil, fmt.Errorf("Adjust: %w", err)
	}
	return rec, nil
}

// Upsert creates the record for a variant or sets its total quantity.
// Setting quantity under the current reservation fails with ErrBelowReserved.
func (r *InventoryRepository) Upsert(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, quantity int) (*domain.InventoryRecord, error) {
	now := time.Now().UTC()
	row := tx.QueryRowContext(ctx,
		`INSERT INTO inventory (id, variant_id, quantity, reserved_quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, 0, $4, $4)
		 ON CONFLICT (variant_id) DO UPDATE
		 SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		 WHERE inventory.reserved_quantity <= EXCLUDED.quantity
		 RETURNING `+inventoryColumns,
		uuid.New(), variantID, quantity, now,
	)
	rec, err := scanInventory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Upsert: %w", domain.ErrBelowReserved)
		}
		return nil, fmt.Errorf("Upsert: %w", err)
	}
	return rec, nil
}

func (r *InventoryRepository) Overview(ctx context.Context) ([]domain.InventoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("Overview: scan: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Overview: rows: %w", err)
	}
	return records, nil
}

// guardResult distinguishes a failed guard condition from a missing row so
// each contract failure maps to its own sentinel.
func (r *InventoryRepository) guardResult(ctx context.Context, tx *sql.Tx, res sql.Result, variantID uuid.UUID, guardErr error, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM inventory WHERE variant_id = $1)`, variantID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, domain.ErrVariantNotFound)
	}
	return fmt.Errorf("%s: %w", op, guardErr)
}

func scanInventory(s scanner) (*domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	err := s.Scan(
		&rec.ID, &rec.VariantID, &rec.Quantity, &rec.ReservedQuantity,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
