package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/perkstore/perkstore/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email, name string, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		StartDate:    time.Now().UTC().AddDate(-1, 0, 0),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, start_date, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.StartDate, u.IsActive, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestProduct(t *testing.T, db *sql.DB, name string, baseCredits decimal.Decimal) *domain.Product {
	t.Helper()

	p := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		BaseCredits: baseCredits,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO products (id, name, base_credits, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, p.BaseCredits, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test product %s: %v", name, err)
	}
	return p
}

func SeedTestVariant(t *testing.T, db *sql.DB, productID uuid.UUID, size, color string, modifier decimal.Decimal) *domain.ProductVariant {
	t.Helper()

	v := &domain.ProductVariant{
		ID:              uuid.New(),
		ProductID:       productID,
		Size:            size,
		Color:           color,
		CreditsModifier: modifier,
		CreatedAt:       time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO product_variants (id, product_id, size, color, credits_modifier, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.ProductID, v.Size, v.Color, v.CreditsModifier, v.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test variant %s/%s: %v", size, color, err)
	}
	return v
}

func SeedTestInventory(t *testing.T, db *sql.DB, variantID uuid.UUID, quantity, reserved int) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO inventory (id, variant_id, quantity, reserved_quantity)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), variantID, quantity, reserved,
	)
	if err != nil {
		t.Fatalf("seed test inventory for variant %s: %v", variantID, err)
	}
}

func GrantTestCredits(t *testing.T, db *sql.DB, userID uuid.UUID, amount decimal.Decimal) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO credit_ledger (id, user_id, amount, entry_type, description)
		 VALUES ($1, $2, $3, 'grant', 'test grant')`,
		uuid.New(), userID, amount,
	)
	if err != nil {
		t.Fatalf("grant test credits to %s: %v", userID, err)
	}
}

func GetBalance(t *testing.T, db *sql.DB, userID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM credit_ledger WHERE user_id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %s: %v", userID, err)
	}
	return balance
}

func GetInventory(t *testing.T, db *sql.DB, variantID uuid.UUID) (quantity, reserved int) {
	t.Helper()

	err := db.QueryRow(
		`SELECT quantity, reserved_quantity FROM inventory WHERE variant_id = $1`, variantID,
	).Scan(&quantity, &reserved)
	if err != nil {
		t.Fatalf("get inventory for variant %s: %v", variantID, err)
	}
	return quantity, reserved
}

func CountLedgerEntries(t *testing.T, db *sql.DB, orderID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM credit_ledger WHERE reference_order_id = $1`, orderID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for order %s: %v", orderID, err)
	}
	return count
}
