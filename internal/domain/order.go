package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order status only changes through the order engine:
// pending -> completed (fulfill) or pending -> cancelled (deny).
type Order struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Status       OrderStatus
	TotalCredits decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
	Items        []OrderItem
}

// OrderItem snapshots the unit price at creation time; later catalog price
// changes never alter historical orders.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	VariantID    uuid.UUID
	Quantity     int
	UnitCredits  decimal.Decimal
	TotalCredits decimal.Decimal
	CreatedAt    time.Time
}
