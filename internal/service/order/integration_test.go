package order_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/repository"
	"github.com/perkstore/perkstore/internal/service/order"
	"github.com/perkstore/perkstore/internal/testutil"
)

func setupOrderService(t *testing.T, db *sql.DB) *order.Service {
	t.Helper()
	return order.NewService(
		repository.NewOrderRepository(db),
		repository.NewInventoryRepository(db),
		repository.NewLedgerRepository(db),
		repository.NewUserRepository(db),
		repository.NewCatalogRepository(db),
		db,
	)
}

func credits(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertCredits(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, actual.Equal(credits(expected)),
		"expected %s credits, got %s", expected, actual.String())
}

func TestCreateOrder_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("200"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 0)

	o, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 3},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assertCredits(t, "150", o.TotalCredits)
	require.Len(t, o.Items, 1)
	assertCredits(t, "50", o.Items[0].UnitCredits)
	assertCredits(t, "150", o.Items[0].TotalCredits)
	assert.Nil(t, o.CompletedAt)

	assertCredits(t, "50", testutil.GetBalance(t, db, user.ID))

	quantity, reserved := testutil.GetInventory(t, db, variant.ID)
	assert.Equal(t, 10, quantity, "stock is not deducted until fulfillment")
	assert.Equal(t, 3, reserved)

	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, o.ID))
	entries, err := repository.NewLedgerRepository(db).GetByOrderID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryTypeDebit, entries[0].EntryType)
	assertCredits(t, "-150", entries[0].Amount)
}

func TestCreateOrder_VariantModifierPricing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "sam@test.com", "Sam", domain.RoleSenior)
	testutil.GrantTestCredits(t, db, user.ID, credits("300"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	xl := testutil.SeedTestVariant(t, db, product.ID, "XL", "black", credits("5"))
	testutil.SeedTestInventory(t, db, xl.ID, 10, 0)

	o, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: xl.ID, Quantity: 2},
	})

	require.NoError(t, err)
	assertCredits(t, "55", o.Items[0].UnitCredits)
	assertCredits(t, "110", o.TotalCredits)
	assertCredits(t, "190", testutil.GetBalance(t, db, user.ID))
}

func TestCreateOrder_InsufficientCredits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "ivy@test.com", "Ivy", domain.RoleIntern)
	testutil.GrantTestCredits(t, db, user.ID, credits("100"))
	product := testutil.SeedTestProduct(t, db, "Keyboard", credits("180"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "", "white", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 5, 0)

	_, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 1},
	})

	require.ErrorIs(t, err, domain.ErrInsufficientCredits)

	assertCredits(t, "100", testutil.GetBalance(t, db, user.ID))
	quantity, reserved := testutil.GetInventory(t, db, variant.ID)
	assert.Equal(t, 5, quantity)
	assert.Equal(t, 0, reserved)

	var orderCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	assert.Equal(t, 0, orderCount, "failed creation must leave no order behind")
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("1000"))
	product := testutil.SeedTestProduct(t, db, "Bottle", credits("25"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "", "steel", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 8)

	// 8 of 10 already reserved, only 2 available.
	_, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 3},
	})

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assertCredits(t, "1000", testutil.GetBalance(t, db, user.ID))
	quantity, reserved := testutil.GetInventory(t, db, variant.ID)
	assert.Equal(t, 10, quantity)
	assert.Equal(t, 8, reserved)
}

func TestCreateOrder_MultiItemAllOrNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("1000"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	inStock := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	outOfStock := testutil.SeedTestVariant(t, db, product.ID, "L", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, inStock.ID, 10, 0)
	testutil.SeedTestInventory(t, db, outOfStock.ID, 1, 0)

	_, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: inStock.ID, Quantity: 2},
		{VariantID: outOfStock.ID, Quantity: 5},
	})

	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, reserved := testutil.GetInventory(t, db, inStock.ID)
	assert.Equal(t, 0, reserved, "sibling item reservation must roll back")
	assertCredits(t, "1000", testutil.GetBalance(t, db, user.ID))
}

func TestCreateOrder_RepeatedVariantSumsQuantities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("1000"))
	product := testutil.SeedTestProduct(t, db, "Bottle", credits("25"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "", "steel", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 5, 0)

	// 3 + 3 across two lines exceeds the 5 in stock even though each line
	// alone would fit.
	_, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 3},
		{VariantID: variant.ID, Quantity: 3},
	})

	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, reserved := testutil.GetInventory(t, db, variant.ID)
	assert.Equal(t, 0, reserved)
}

func TestCreateOrder_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)

	_, err := svc.CreateOrder(ctx, user.ID, nil)
	require.ErrorIs(t, err, domain.ErrEmptyOrder)

	_, err = svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 0},
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: -2},
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestFulfillOrder_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("200"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 0)

	created, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 3},
	})
	require.NoError(t, err)

	fulfilled, err := svc.FulfillOrder(ctx, created.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, fulfilled.Status)
	require.NotNil(t, fulfilled.CompletedAt)

	quantity, reserved := testutil.GetInventory(t, db, variant.ID)
	assert.Equal(t, 7, quantity)
	assert.Equal(t, 0, reserved)

	// The debit from creation is the only ledger movement; fulfillment does
	// not touch credits again.
	assertCredits(t, "50", testutil.GetBalance(t, db, user.ID))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, created.ID))
}

func TestDenyOrder_RestoresCreditsAndStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("200"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 0)

	created, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assertCredits(t, "50", testutil.GetBalance(t, db, user.ID))

	denied, err := svc.DenyOrder(ctx, created.ID, "out of season")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, denied.Status)
	assert.Nil(t, denied.CompletedAt)

	quantity, reserved := testutil.GetInventory(t, db, variant.ID)
	assert.Equal(t, 10, quantity)
	assert.Equal(t, 0, reserved)

	assertCredits(t, "200", testutil.GetBalance(t, db, user.ID))

	// The original debit stays; denial appends a compensating grant.
	entries, err := repository.NewLedgerRepository(db).GetByOrderID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var debit, grant *domain.LedgerEntry
	for i := range entries {
		switch entries[i].EntryType {
		case domain.EntryTypeDebit:
			debit = &entries[i]
		case domain.EntryTypeGrant:
			grant = &entries[i]
		}
	}
	require.NotNil(t, debit)
	require.NotNil(t, grant)
	assertCredits(t, "-150", debit.Amount)
	assertCredits(t, "150", grant.Amount)
	assert.Contains(t, grant.Description, "out of season")
}

func TestDecideOrder_NotPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("500"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 0)

	completed, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 1},
	})
	require.NoError(t, err)
	_, err = svc.FulfillOrder(ctx, completed.ID)
	require.NoError(t, err)

	_, err = svc.FulfillOrder(ctx, completed.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotPending)
	_, err = svc.DenyOrder(ctx, completed.ID, "")
	require.ErrorIs(t, err, domain.ErrOrderNotPending)

	cancelled, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 1},
	})
	require.NoError(t, err)
	_, err = svc.DenyOrder(ctx, cancelled.ID, "test")
	require.NoError(t, err)

	_, err = svc.FulfillOrder(ctx, cancelled.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotPending)
	_, err = svc.DenyOrder(ctx, cancelled.ID, "")
	require.ErrorIs(t, err, domain.ErrOrderNotPending)

	// A denied order stays denied: only the one refund was written.
	assert.Equal(t, 2, testutil.CountLedgerEntries(t, db, cancelled.ID))
}

func TestCreateOrder_ConcurrentOversell(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	alice := testutil.SeedTestUser(t, db, "alice@test.com", "Alice", domain.RoleEmployee)
	bob := testutil.SeedTestUser(t, db, "bob@test.com", "Bob", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, alice.ID, credits("1000"))
	testutil.GrantTestCredits(t, db, bob.ID, credits("1000"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	// 6 + 6 against 10 in stock: the reservations cannot both fit.
	for _, userID := range []uuid.UUID{alice.ID, bob.ID} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, id, []order.ItemRequest{
				{VariantID: variant.ID, Quantity: 6},
			})
			results <- err
		}(userID)
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one order should reserve stock")
	assert.Equal(t, 1, failures, "the other must be rejected")

	quantity, reserved := testutil.GetInventory(t, db, variant.ID)
	assert.Equal(t, 10, quantity)
	assert.Equal(t, 6, reserved)
}

func TestCreateOrder_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("200"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("150"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 100, 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	// Two 150-credit orders against a 200-credit balance.
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
				{VariantID: variant.ID, Quantity: 1},
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
			failures++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)
	assertCredits(t, "50", testutil.GetBalance(t, db, user.ID))
}

func TestCreateOrder_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, credits("200"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 0)

	created, err := svc.CreateOrder(ctx, user.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 2},
	})
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE products SET base_credits = 80 WHERE id = $1`, product.ID)
	require.NoError(t, err)

	// Denial refunds the snapshot total, not the new catalog price.
	_, err = svc.DenyOrder(ctx, created.ID, "")
	require.NoError(t, err)
	assertCredits(t, "200", testutil.GetBalance(t, db, user.ID))
}

func TestGetOrderForUser_CloaksOtherUsersOrders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupOrderService(t, db)
	ctx := context.Background()

	owner := testutil.SeedTestUser(t, db, "owner@test.com", "Owner", domain.RoleEmployee)
	other := testutil.SeedTestUser(t, db, "other@test.com", "Other", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, owner.ID, credits("200"))
	product := testutil.SeedTestProduct(t, db, "Hoodie", credits("50"))
	variant := testutil.SeedTestVariant(t, db, product.ID, "M", "black", decimal.Zero)
	testutil.SeedTestInventory(t, db, variant.ID, 10, 0)

	created, err := svc.CreateOrder(ctx, owner.ID, []order.ItemRequest{
		{VariantID: variant.ID, Quantity: 1},
	})
	require.NoError(t, err)

	got, err := svc.GetOrderForUser(ctx, created.ID, owner.ID, false)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetOrderForUser(ctx, created.ID, other.ID, false)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	got, err = svc.GetOrderForUser(ctx, created.ID, other.ID, true)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}
