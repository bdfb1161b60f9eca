package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
)

type orderRepo interface {
	Create(ctx context.Context, tx *sql.Tx, o *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Order, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.OrderStatus, completedAt *time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error)
}

type inventoryRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, variantID uuid.UUID) (*domain.InventoryRecord, error)
	Reserve(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, qty int) error
	Commit(ctx context.Context, tx *sql.Tx, variantID uuid.UUID, qty int) error
}

type ledgerRepo interface {
	Append(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	Balance(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error)
}

type userRepo interface {
	LockForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
}

type priceResolver interface {
	ResolvePrice(ctx context.Context, variantID uuid.UUID) (uuid.UUID, decimal.Decimal, error)
}

// Service is the credit-and-inventory transaction engine. Every multi-step
// mutation runs in a single database transaction; validation reads happen
// inside the same transaction as the writes they guard.
type Service struct {
	orders    orderRepo
	inventory inventoryRepo
	ledger    ledgerRepo
	users     userRepo
	catalog   priceResolver
	db        *sql.DB
}

func NewService(
	orders orderRepo,
	inventory inventoryRepo,
	ledger ledgerRepo,
	users userRepo,
	catalog priceResolver,
	db *sql.DB,
) *Service {
	return &Service{
		orders:    orders,
		inventory: inventory,
		ledger:    ledger,
		users:     users,
		catalog:   catalog,
		db:        db,
	}
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("GetOrder: %w", err)
	}
	return o, nil
}

// GetOrderForUser hides other users' orders behind not-found unless the
// caller is an admin.
func (s *Service) GetOrderForUser(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("GetOrderForUser: %w", err)
	}
	if o.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("GetOrderForUser: %w", domain.ErrOrderNotFound)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListOrders: %w", err)
	}
	return orders, nil
}

func (s *Service) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return orders, nil
}
