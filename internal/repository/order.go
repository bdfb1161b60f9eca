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

const orderColumns = `id, user_id, status, total_credits, created_at, updated_at, completed_at`
const orderItemColumns = `id, order_id, variant_id, quantity, unit_credits, total_credits, created_at`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order and its items inside the caller's transaction.
func (r *OrderRepository) Create(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total_credits, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.UserID, o.Status, o.TotalCredits, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, variant_id, quantity, unit_credits, total_credits, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.OrderID, item.VariantID, item.Quantity,
			item.UnitCredits, item.TotalCredits, item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("Create: item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	items, err := r.itemsByOrder(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	o.Items = items
	return o, nil
}

// GetForUpdate locks the order row so two concurrent admin decisions on the
// same order serialize; the loser then sees a non-pending status.
func (r *OrderRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Order, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}

	items, err := r.itemsByOrder(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.OrderStatus, completedAt *time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3, completed_at = $4 WHERE id = $1`,
		id, status, time.Now().UTC(), completedAt,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	return r.collectWithItems(ctx, rows, "ListByUser")
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE status = $1 ORDER BY created_at LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return r.collectWithItems(ctx, rows, "ListByStatus")
}

func (r *OrderRepository) collectWithItems(ctx context.Context, rows *sql.Rows, op string) ([]domain.Order, error) {
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	for i := range orders {
		items, err := r.itemsByOrder(ctx, r.db, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders[i].Items = items
	}
	return orders, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *OrderRepository) itemsByOrder(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY created_at, id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("itemsByOrder: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		err := rows.Scan(
			&it.ID, &it.OrderID, &it.VariantID, &it.Quantity,
			&it.UnitCredits, &it.TotalCredits, &it.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("itemsByOrder: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itemsByOrder: rows: %w", err)
	}
	return items, nil
}

func scanOrder(s scanner) (*domain.Order, error) {
	var o domain.Order
	err := s.Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalCredits,
		&o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
