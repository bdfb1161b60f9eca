package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkstore/perkstore/internal/domain"
	"github.com/perkstore/perkstore/internal/repository"
	"github.com/perkstore/perkstore/internal/service"
	"github.com/perkstore/perkstore/internal/testutil"
)

func TestEnsureInitialGrant_GrantsOncePerRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(
		repository.NewLedgerRepository(db),
		repository.NewUserRepository(db),
		db,
	)
	ctx := context.Background()

	cases := []struct {
		role     domain.UserRole
		expected int64
	}{
		{domain.RoleIntern, 100},
		{domain.RoleEmployee, 200},
		{domain.RoleSenior, 300},
		{domain.RoleAdmin, 1000},
	}

	for _, tc := range cases {
		user := testutil.SeedTestUser(t, db, string(tc.role)+"@test.com", "User", tc.role)

		require.NoError(t, svc.EnsureInitialGrant(ctx, user))
		require.NoError(t, svc.EnsureInitialGrant(ctx, user), "second call must be a no-op")

		balance := testutil.GetBalance(t, db, user.ID)
		assert.True(t, balance.Equal(decimal.NewFromInt(tc.expected)),
			"role %s: expected %d, got %s", tc.role, tc.expected, balance.String())
	}
}

func TestEnsureInitialGrant_ConcurrentFirstLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(
		repository.NewLedgerRepository(db),
		repository.NewUserRepository(db),
		db,
	)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.EnsureInitialGrant(ctx, user))
		}()
	}
	wg.Wait()

	balance := testutil.GetBalance(t, db, user.ID)
	assert.True(t, balance.Equal(decimal.NewFromInt(200)),
		"expected a single 200 grant, got %s", balance.String())
}

func TestGrant_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(
		repository.NewLedgerRepository(db),
		repository.NewUserRepository(db),
		db,
	)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)

	_, err := svc.Grant(ctx, user.ID, decimal.Zero, "nothing")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Grant(ctx, user.ID, decimal.NewFromInt(-5), "negative")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Grant(ctx, uuid.New(), decimal.NewFromInt(50), "ghost")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	entry, err := svc.Grant(ctx, user.ID, decimal.NewFromInt(50), "spot bonus")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryTypeGrant, entry.EntryType)

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(50)))
}

func TestAdjust_SignedCorrections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(
		repository.NewLedgerRepository(db),
		repository.NewUserRepository(db),
		db,
	)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	testutil.GrantTestCredits(t, db, user.ID, decimal.NewFromInt(100))

	_, err := svc.Adjust(ctx, user.ID, decimal.Zero, "noop")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	entry, err := svc.Adjust(ctx, user.ID, decimal.NewFromInt(-30), "overgranted last month")
	require.NoError(t, err)
	assert.Equal(t, domain.EntryTypeAdjust, entry.EntryType)

	balance := testutil.GetBalance(t, db, user.ID)
	assert.True(t, balance.Equal(decimal.NewFromInt(70)),
		"expected 70 after -30 adjustment, got %s", balance.String())
}

func TestHistory_NewestFirstWithTotal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCreditService(
		repository.NewLedgerRepository(db),
		repository.NewUserRepository(db),
		db,
	)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@test.com", "Erin", domain.RoleEmployee)
	for i := 1; i <= 5; i++ {
		_, err := svc.Grant(ctx, user.ID, decimal.NewFromInt(int64(i)), "grant")
		require.NoError(t, err)
	}

	entries, total, err := svc.History(ctx, user.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt) ||
		entries[0].CreatedAt.Equal(entries[1].CreatedAt))

	rest, total, err := svc.History(ctx, user.ID, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, rest, 3)
}
