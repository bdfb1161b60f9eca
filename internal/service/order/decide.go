package order

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
)

// FulfillOrder finalizes a pending order: every reservation becomes a
// permanent stock deduction and the order completes. Credits were already
// debited at creation and are not touched again. ErrInsufficientReservation
// here means the reservation was corrupted outside the engine; the whole
// transaction rolls back rather than attempting partial repair.
func (s *Service) FulfillOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("FulfillOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("FulfillOrder: %w", err)
	}
	if o.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("FulfillOrder: status %s: %w", o.Status, domain.ErrOrderNotPending)
	}

	for _, item := range sortedByVariant(o.Items) {
		if _, err := s.inventory.GetForUpdate(ctx, tx, item.VariantID); err != nil {
			return nil, fmt.Errorf("FulfillOrder: variant %s: %w", item.VariantID, err)
		}
		if err := s.inventory.Commit(ctx, tx, item.VariantID, item.Quantity); err != nil {
			return nil, fmt.Errorf("FulfillOrder: variant %s: %w", item.VariantID, err)
		}
	}

	now := time.Now().UTC()
	if err := s.orders.UpdateStatus(ctx, tx, o.ID, domain.OrderStatusCompleted, &now); err != nil {
		return nil, fmt.Errorf("FulfillOrder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("FulfillOrder: commit: %w", err)
	}

	o.Status = domain.OrderStatusCompleted
	o.UpdatedAt = now
	o.CompletedAt = &now

	logging.FromContext(ctx).Info("order fulfilled", "order_id", o.ID, "user_id", o.UserID)
	return o, nil
}

// DenyOrder rejects a pending order: reservations are released and the full
// total is refunded as a grant entry referencing the order. The original
// debit entry stays in the ledger; the pair documents the round trip.
func (s *Service) DenyOrder(ctx context.Context, orderID uuid.UUID, reason string) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("DenyOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("DenyOrder: %w", err)
	}
	if o.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("DenyOrder: status %s: %w", o.Status, domain.ErrOrderNotPending)
	}

	for _, item := range sortedByVariant(o.Items) {
		if _, err := s.inventory.GetForUpdate(ctx, tx, item.VariantID); err != nil {
			return nil, fmt.Errorf("DenyOrder: variant %s: %w", item.VariantID, err)
		}
		if err := s.inventory.Release(ctx, tx, item.VariantID, item.Quantity); err != nil {
			return nil, fmt.Errorf("DenyOrder: variant %s: %w", item.VariantID, err)
		}
	}

	now := time.Now().UTC()
	description := fmt.Sprintf("Order %s - refund (denied)", o.ID)
	if reason != "" {
		description += ": " + reason
	}
	refund := &domain.LedgerEntry{
		ID:               uuid.New(),
		UserID:           o.UserID,
		Amount:           o.TotalCredits,
		EntryType:        domain.EntryTypeGrant,
		Description:      description,
		ReferenceOrderID: &o.ID,
		CreatedAt:        now,
	}
	if err := s.ledger.Append(ctx, tx, refund); err != nil {
		return nil, fmt.Errorf("DenyOrder: %w", err)
	}

	if err := s.orders.UpdateStatus(ctx, tx, o.ID, domain.OrderStatusCancelled, nil); err != nil {
		return nil, fmt.Errorf("DenyOrder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("DenyOrder: commit: %w", err)
	}

	o.Status = domain.OrderStatusCancelled
	o.UpdatedAt = now

	logging.FromContext(ctx).Info("order denied",
		"order_id", o.ID,
		"user_id", o.UserID,
		"reason", reason,
	)
	return o, nil
}

func sortedByVariant(items []domain.OrderItem) []domain.OrderItem {
	sorted := make([]domain.OrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].VariantID.String() < sorted[j].VariantID.String()
	})
	return sorted
}
