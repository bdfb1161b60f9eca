// Command seed loads demo users, catalog, and inventory into the database.
// It is idempotent: rows are keyed by fixed UUIDs and re-running is a no-op.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/perkstore/perkstore/internal/config"
	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/logging"
	"github.com/perkstore/perkstore/internal/repository"
)

type seedUser struct {
	id       uuid.UUID
	email    string
	name     string
	role     domain.UserRole
	password string
}

type seedVariant struct {
	id       uuid.UUID
	size     string
	color    string
	modifier string
	stock    int
}

type seedProduct struct {
	id          uuid.UUID
	name        string
	description string
	baseCredits string
	variants    []seedVariant
}

var users = []seedUser{
	{uuid.MustParse("10000000-0000-0000-0000-000000000001"), "admin@perkstore.dev", "Ada Admin", domain.RoleAdmin, "admin123"},
	{uuid.MustParse("10000000-0000-0000-0000-000000000002"), "erin@perkstore.dev", "Erin Employee", domain.RoleEmployee, "password123"},
	{uuid.MustParse("10000000-0000-0000-0000-000000000003"), "sam@perkstore.dev", "Sam Senior", domain.RoleSenior, "password123"},
	{uuid.MustParse("10000000-0000-0000-0000-000000000004"), "ivy@perkstore.dev", "Ivy Intern", domain.RoleIntern, "password123"},
}

var products = []seedProduct{
	{
		id:          uuid.MustParse("20000000-0000-0000-0000-000000000001"),
		name:        "Company Hoodie",
		description: "Heavyweight zip hoodie with embroidered logo.",
		baseCredits: "50",
		variants: []seedVariant{
			{uuid.MustParse("30000000-0000-0000-0000-000000000001"), "S", "black", "0", 10},
			{uuid.MustParse("30000000-0000-0000-0000-000000000002"), "M", "black", "0", 15},
			{uuid.MustParse("30000000-0000-0000-0000-000000000003"), "L", "black", "0", 15},
			{uuid.MustParse("30000000-0000-0000-0000-000000000004"), "XL", "black", "5", 8},
		},
	},
	{
		id:          uuid.MustParse("20000000-0000-0000-0000-000000000002"),
		name:        "Insulated Bottle",
		description: "750ml stainless steel bottle, keeps drinks cold for 24h.",
		baseCredits: "25",
		variants: []seedVariant{
			{uuid.MustParse("30000000-0000-0000-0000-000000000005"), "", "steel", "0", 40},
			{uuid.MustParse("30000000-0000-0000-0000-000000000006"), "", "matte black", "5", 25},
		},
	},
	{
		id:          uuid.MustParse("20000000-0000-0000-0000-000000000003"),
		name:        "Desk Plant Kit",
		description: "Low-maintenance succulent with ceramic pot.",
		baseCredits: "15",
		variants: []seedVariant{
			{uuid.MustParse("30000000-0000-0000-0000-000000000007"), "", "terracotta", "0", 30},
		},
	},
	{
		id:          uuid.MustParse("20000000-0000-0000-0000-000000000004"),
		name:        "Mechanical Keyboard",
		description: "Tenkeyless board with hot-swappable switches.",
		baseCredits: "180",
		variants: []seedVariant{
			{uuid.MustParse("30000000-0000-0000-0000-000000000008"), "", "white", "0", 5},
			{uuid.MustParse("30000000-0000-0000-0000-000000000009"), "", "black", "0", 5},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("perkstore-seed", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     5,
		MaxIdleConns:     2,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := seed(ctx, db); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed complete", "users", len(users), "products", len(products))
}

func seed(ctx context.Context, db *sql.DB) error {
	for _, u := range users {
		if err := seedOneUser(ctx, db, u); err != nil {
			return fmt.Errorf("user %s: %w", u.email, err)
		}
	}
	for _, p := range products {
		if err := seedOneProduct(ctx, db, p); err != nil {
			return fmt.Errorf("product %s: %w", p.name, err)
		}
	}
	return nil
}

func seedOneUser(ctx context.Context, db *sql.DB, u seedUser) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, start_date)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (id) DO NOTHING`,
		u.id, u.email, u.name, string(hash), u.role,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	inserted, _ := res.RowsAffected()
	if inserted == 0 {
		return nil
	}

	// Initial grant mirrors what the login flow would do on first sign-in.
	_, err = db.ExecContext(ctx,
		`INSERT INTO credit_ledger (id, user_id, amount, entry_type, description)
		 VALUES ($1, $2, $3, 'grant', $4)`,
		uuid.New(), u.id, u.role.InitialCredits(),
		fmt.Sprintf("Initial credits for %s", u.role),
	)
	if err != nil {
		return fmt.Errorf("initial grant: %w", err)
	}

	slog.Info("seeded user", "email", u.email, "role", u.role,
		"credits", u.role.InitialCredits().String())
	return nil
}

func seedOneProduct(ctx context.Context, db *sql.DB, p seedProduct) error {
	base, err := decimal.NewFromString(p.baseCredits)
	if err != nil {
		return fmt.Errorf("parse base credits: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, base_credits)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		p.id, p.name, p.description, base,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for _, v := range p.variants {
		modifier, err := decimal.NewFromString(v.modifier)
		if err != nil {
			return fmt.Errorf("parse modifier: %w", err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO product_variants (id, product_id, size, color, credits_modifier)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			v.id, p.id, v.size, v.color, modifier,
		)
		if err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO inventory (id, variant_id, quantity)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (variant_id) DO NOTHING`,
			uuid.New(), v.id, v.stock,
		)
		if err != nil {
			return fmt.Errorf("insert inventory: %w", err)
		}
	}

	slog.Info("seeded product", "name", p.name, "variants", len(p.variants))
	return nil
}
