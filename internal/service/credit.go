package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
)

// CreditService fronts the append-only credit ledger. Balances are always
// derived from the entries; nothing here stores a running counter.
type CreditService struct {
	ledger ledgerRepository
	users  userRepository
	db     *sql.DB
}

func NewCreditService(ledger ledgerRepository, users userRepository, db *sql.DB) *CreditService {
	return &CreditService{ledger: ledger, users: users, db: db}
}

func (s *CreditService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.ledger.Balance(ctx, nil, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Balance: %w", err)
	}
	return balance, nil
}

func (s *CreditService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	entries, total, err := s.ledger.History(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w", err)
	}
	return entries, total, nil
}

// Grant credits a user by appending a grant entry. Admin surface.
func (s *CreditService) Grant(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("Grant: %w", domain.ErrInvalidAmount)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("Grant: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		EntryType:   domain.EntryTypeGrant,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, nil, entry); err != nil {
		return nil, fmt.Errorf("Grant: %w", err)
	}

	logging.FromContext(ctx).Info("credits granted",
		"user_id", userID,
		"amount", amount,
		"entry_id", entry.ID,
	)
	return entry, nil
}

// Adjust appends a signed correction entry. Negative amounts take credits
// away; the ledger itself is still append-only.
func (s *CreditService) Adjust(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*domain.LedgerEntry, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("Adjust: %w", domain.ErrInvalidAmount)
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		EntryType:   domain.EntryTypeAdjust,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, nil, entry); err != nil {
		return nil, fmt.Errorf("Adjust: %w", err)
	}

	logging.FromContext(ctx).Info("credits adjusted",
		"user_id", userID,
		"amount", amount,
		"entry_id", entry.ID,
	)
	return entry, nil
}

// EnsureInitialGrant writes the role-based starting grant the first time a
// user shows up with an empty ledger. The user row lock keeps two concurrent
// first logins from double-granting.
func (s *CreditService) EnsureInitialGrant(ctx context.Context, user *domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("EnsureInitialGrant: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.LockForUpdate(ctx, tx, user.ID); err != nil {
		return fmt.Errorf("EnsureInitialGrant: %w", err)
	}

	has, err := s.ledger.HasEntries(ctx, tx, user.ID)
	if err != nil {
		return fmt.Errorf("EnsureInitialGrant: %w", err)
	}
	if has {
		return nil
	}

	entry := &domain.LedgerEntry{
		ID:          uuid.New(),
		UserID:      user.ID,
		Amount:      user.Role.InitialCredits(),
		EntryType:   domain.EntryTypeGrant,
		Description: fmt.Sprintf("Initial %s credits", user.Role),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, tx, entry); err != nil {
		return fmt.Errorf("EnsureInitialGrant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("EnsureInitialGrant: commit: %w", err)
	}

	logging.FromContext(ctx).Info("initial credits granted",
		"user_id", user.ID,
		"role", user.Role,
		"amount", entry.Amount,
	)
	return nil
}
