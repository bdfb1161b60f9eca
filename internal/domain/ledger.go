package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeGrant  EntryType = "grant"
	EntryTypeDebit  EntryType = "debit"
	EntryTypeAdjust EntryType = "adjust"
)

// LedgerEntry is one signed credit movement. Entries are append-only: a
// user's balance is the sum of their entries and corrections are made by
// appending an offsetting entry, never by updating an existing one.
type LedgerEntry struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Amount           decimal.Decimal
	EntryType        EntryType
	Description      string
	ReferenceOrderID *uuid.UUID
	CreatedAt        time.Time
}
