package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
)

const ledgerColumns = `id, user_id, amount, entry_type, description, reference_order_id, created_at`

// LedgerRepository is append-only: entries are inserted and read, never
// updated or deleted.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts one ledger entry. tx may be nil for standalone writes such
// as admin grants outside a larger transaction.
func (r *LedgerRepository) Append(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	var ex execer = r.db
	if tx != nil {
		ex = tx
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO credit_ledger (id, user_id, amount, entry_type, description, reference_order_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Amount, entry.EntryType,
		entry.Description, entry.ReferenceOrderID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

// Balance derives the user's balance as the sum of their entries. A user
// with no entries has balance zero, not an error. Pass the enclosing tx when
// the balance feeds a check-then-write sequence.
func (r *LedgerRepository) Balance(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	var ex execer = r.db
	if tx != nil {
		ex = tx
	}
	var balance decimal.Decimal
	err := ex.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM credit_ledger WHERE user_id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Balance: %w", err)
	}
	return balance, nil
}

func (r *LedgerRepository) HasEntries(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (bool, error) {
	var ex execer = r.db
	if tx != nil {
		ex = tx
	}
	var exists bool
	err := ex.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credit_ledger WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("HasEntries: %w", err)
	}
	return exists, nil
}

// History returns the user's entries most recent first. The id tiebreak keeps
// entries written in the same transaction in a stable order.
func (r *LedgerRepository) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credit_ledger WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("History: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM credit_ledger
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("History: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("History: rows: %w", err)
	}
	return entries, total, nil
}

func (r *LedgerRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM credit_ledger
		WHERE reference_order_id = $1 ORDER BY created_at, id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByOrderID: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("GetByOrderID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByOrderID: rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.UserID, &e.Amount, &e.EntryType,
		&e.Description, &e.ReferenceOrderID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
