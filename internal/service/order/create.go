package order

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
)

type ItemRequest struct {
	VariantID uuid.UUID
	Quantity  int
}

// CreateOrder prices the requested items, then in one transaction checks
// available stock and the user's derived balance, reserves every item,
// persists the order with price snapshots, and debits the full total from
// the ledger. Debiting at creation rather than fulfillment is deliberate:
// it keeps a user from queuing more pending orders than they can afford.
// All-or-nothing: any failed check leaves ledger, inventory and orders
// untouched.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, requested []ItemRequest) (*domain.Order, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("CreateOrder: %w", domain.ErrEmptyOrder)
	}
	for _, req := range requested {
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("CreateOrder: variant %s: %w", req.VariantID, domain.ErrInvalidQuantity)
		}
	}

	now := time.Now().UTC()
	orderID := uuid.New()

	// Price in caller-supplied order; the snapshot taken here is what the
	// order keeps regardless of later catalog changes.
	items := make([]domain.OrderItem, 0, len(requested))
	total := decimal.Zero
	for _, req := range requested {
		_, unitCredits, err := s.catalog.ResolvePrice(ctx, req.VariantID)
		if err != nil {
			return nil, fmt.Errorf("CreateOrder: variant %s: %w", req.VariantID, err)
		}
		itemTotal := unitCredits.Mul(decimal.NewFromInt(int64(req.Quantity)))
		items = append(items, domain.OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			VariantID:    req.VariantID,
			Quantity:     req.Quantity,
			UnitCredits:  unitCredits,
			TotalCredits: itemTotal,
			CreatedAt:    now,
		})
		total = total.Add(itemTotal)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Serializes the balance check for this user against concurrent orders.
	if err := s.users.LockForUpdate(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	// Lock inventory rows in a consistent order so two concurrent orders over
	// the same variants cannot deadlock, then validate against the locked
	// counts. Validation failures roll back with nothing reserved.
	if err := lockVariantsInOrder(ctx, tx, s.inventory, items); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	balance, err := s.ledger.Balance(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}
	if balance.LessThan(total) {
		return nil, fmt.Errorf("CreateOrder: %w", domain.ErrInsufficientCredits)
	}

	for _, item := range items {
		if err := s.inventory.Reserve(ctx, tx, item.VariantID, item.Quantity); err != nil {
			return nil, fmt.Errorf("CreateOrder: variant %s: %w", item.VariantID, err)
		}
	}

	o := &domain.Order{
		ID:           orderID,
		UserID:       userID,
		Status:       domain.OrderStatusPending,
		TotalCredits: total,
		CreatedAt:    now,
		UpdatedAt:    now,
		Items:        items,
	}
	if err := s.orders.Create(ctx, tx, o); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	debit := &domain.LedgerEntry{
		ID:               uuid.New(),
		UserID:           userID,
		Amount:           total.Neg(),
		EntryType:        domain.EntryTypeDebit,
		Description:      fmt.Sprintf("Order %s - pending approval", orderID),
		ReferenceOrderID: &orderID,
		CreatedAt:        now,
	}
	if err := s.ledger.Append(ctx, tx, debit); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateOrder: commit: %w", err)
	}

	logging.FromContext(ctx).Info("order created",
		"order_id", orderID,
		"user_id", userID,
		"items", len(items),
		"total_credits", total,
	)
	return o, nil
}

// lockVariantsInOrder takes row locks in sorted variant order and checks
// availability for every item. Reporting uses the caller-supplied item order.
func lockVariantsInOrder(ctx context.Context, tx *sql.Tx, inventory inventoryRepo, items []domain.OrderItem) error {
	sorted := make([]domain.OrderItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].VariantID.String() < sorted[j].VariantID.String()
	})

	locked := make(map[uuid.UUID]*domain.InventoryRecord, len(sorted))
	for _, item := range sorted {
		if _, ok := locked[item.VariantID]; ok {
			continue
		}
		rec, err := inventory.GetForUpdate(ctx, tx, item.VariantID)
		if err != nil {
			return fmt.Errorf("lockVariantsInOrder: variant %s: %w", item.VariantID, err)
		}
		locked[item.VariantID] = rec
	}

	// Availability is checked against the still-locked rows, summing
	// quantities when an order repeats a variant.
	needed := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		needed[item.VariantID] += item.Quantity
	}
	for _, item := range items {
		rec := locked[item.VariantID]
		if rec.Available() < needed[item.VariantID] {
			return fmt.Errorf("lockVariantsInOrder: variant %s: %w", item.VariantID, domain.ErrInsufficientStock)
		}
	}
	return nil
}
