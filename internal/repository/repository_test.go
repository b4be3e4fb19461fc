package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ecovendix/internal/domain"
	"ecovendix/internal/repository"
	"ecovendix/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Credential store
// =============================================================================

func TestUserRepository_FindByStudentID(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.DB, "Alice", "123456789", 40)

	got, err := s.Users.FindByStudentID(ctx, "123456789")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, 40, got.Points)

	_, err = s.Users.FindByStudentID(ctx, "999999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()

	require.NoError(t, s.Users.Create(ctx, &domain.User{Name: "A", StudentID: "123456789", PasswordHash: "x"}))
	err := s.Users.Create(ctx, &domain.User{Name: "B", StudentID: "123456789", PasswordHash: "y"})
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentifier)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.User{}, ""))
}

func TestUserRepository_SetPointsClamps(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.DB, "Bob", "223456789", 10)

	require.NoError(t, s.Users.SetPoints(ctx, u.ID, -5))
	assert.Equal(t, 0, testutil.Reload(t, s.DB, u.ID).Points)

	require.NoError(t, s.Users.SetPoints(ctx, u.ID, 0), "writing the same value is not an error")
	require.NoError(t, s.Users.SetPoints(ctx, u.ID, 75))
	assert.Equal(t, 75, testutil.Reload(t, s.DB, u.ID).Points)

	assert.ErrorIs(t, s.Users.SetPoints(ctx, 9999, 5), domain.ErrNotFound)
}

func TestUserRepository_DebitPoints(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.DB, "Cara", "323456789", 20)

	require.NoError(t, s.Users.DebitPoints(ctx, u.ID, 15))
	assert.Equal(t, 5, testutil.Reload(t, s.DB, u.ID).Points)

	err := s.Users.DebitPoints(ctx, u.ID, 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
	assert.Equal(t, 5, testutil.Reload(t, s.DB, u.ID).Points)
}

func TestUserRepository_AddPoints(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.DB, "Dan", "423456789", 3)

	require.NoError(t, s.Users.AddPoints(ctx, u.ID, 12))
	assert.Equal(t, 15, testutil.Reload(t, s.DB, u.ID).Points)

	assert.ErrorIs(t, s.Users.AddPoints(ctx, u.ID, -16), domain.ErrInsufficientPoints)
	assert.Equal(t, 15, testutil.Reload(t, s.DB, u.ID).Points)
}

func TestUserRepository_LeaderboardAndRank(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	testutil.CreateAdmin(t, s.DB, "000000000")
	a := testutil.CreateUser(t, s.DB, "A", "100000001", 50)
	b := testutil.CreateUser(t, s.DB, "B", "100000002", 80)
	c := testutil.CreateUser(t, s.DB, "C", "100000003", 50)
	d := testutil.CreateUser(t, s.DB, "D", "100000004", 0)

	top, err := s.Users.TopByPoints(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []uint{b.ID, a.ID, c.ID}, []uint{top[0].ID, top[1].ID, top[2].ID})

	for _, tt := range []struct {
		user *domain.User
		want int
	}{{b, 1}, {a, 2}, {c, 3}, {d, 4}} {
		rank, err := s.Users.Rank(ctx, tt.user)
		require.NoError(t, err)
		assert.Equal(t, tt.want, rank, tt.user.Name)
	}

	users, err := s.Users.ListNonAdmin(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestUserRepository_Delete(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	testutil.CreateAdmin(t, s.DB, "000000000")
	u := testutil.CreateUser(t, s.DB, "E", "523456789", 0)
	testutil.CreateUser(t, s.DB, "F", "623456789", 0)

	require.NoError(t, s.Users.Delete(ctx, u.ID))
	assert.ErrorIs(t, s.Users.Delete(ctx, u.ID), domain.ErrNotFound)

	n, err := s.Users.DeleteAllNonAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.User{}, "is_admin = ?", true))
}

// =============================================================================
// Catalog store
// =============================================================================

func TestProductRepository_SeedAndList(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()

	n, err := s.Products.SeedIfEmpty(ctx, domain.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	n, err = s.Products.SeedIfEmpty(ctx, domain.DefaultCatalog())
	require.NoError(t, err)
	assert.Zero(t, n, "second seed is a no-op")

	products, err := s.Products.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 6)
	assert.Equal(t, "Water", products[0].Name)
	assert.Equal(t, "Biscuit", products[5].Name)
	assert.False(t, products[5].InStock())
}

func TestProductRepository_SetStock(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, s.DB, "Soda", 35, 9)

	require.NoError(t, s.Products.SetStock(ctx, p.ID, -3))
	assert.Equal(t, 0, testutil.ReloadProduct(t, s.DB, p.ID).StockQuantity)

	require.NoError(t, s.Products.SetStock(ctx, p.ID, 12))
	assert.Equal(t, 12, testutil.ReloadProduct(t, s.DB, p.ID).StockQuantity)

	assert.ErrorIs(t, s.Products.SetStock(ctx, 404, 1), domain.ErrNotFound)

	_, err := s.Products.FindByID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, s.DB, "Water", 15, 1)

	require.NoError(t, s.Products.DecrementStock(ctx, p.ID))
	assert.ErrorIs(t, s.Products.DecrementStock(ctx, p.ID), domain.ErrOutOfStock)
	assert.Equal(t, 0, testutil.ReloadProduct(t, s.DB, p.ID).StockQuantity)
}

// =============================================================================
// Ledger store
// =============================================================================

func TestTransactionRepository_AppendAndRecent(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.DB, "G", "723456789", 0)
	other := testutil.CreateUser(t, s.DB, "H", "823456789", 0)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		testutil.CreateEntry(t, s.DB, u.ID, "Recycling", i+1, base.Add(time.Duration(i)*time.Minute))
	}
	testutil.CreateEntry(t, s.DB, other.ID, "Recycling", 99, base.Add(time.Hour))

	entries, err := s.Transactions.RecentForUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	assert.Equal(t, 12, entries[0].PointChange, "most recent first")
	assert.Equal(t, 3, entries[9].PointChange)
	for _, e := range entries {
		assert.Equal(t, u.ID, e.UserID)
	}

	entry, err := s.Transactions.Append(ctx, u.ID, "Soda", -35)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, -35, entry.PointChange)
	assert.False(t, entry.Timestamp.IsZero())

	_, err = s.Transactions.Append(ctx, 9999, "Soda", -35)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactionRepository_DeleteForNonAdmin(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, s.DB, "000000000")
	u := testutil.CreateUser(t, s.DB, "I", "923456789", 0)
	now := time.Now().UTC()
	testutil.CreateEntry(t, s.DB, admin.ID, "Audit", 1, now)
	testutil.CreateEntry(t, s.DB, u.ID, "Water", -15, now)
	testutil.CreateEntry(t, s.DB, u.ID, "Drink", -25, now)

	n, err := s.Transactions.DeleteForNonAdmin(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.Transaction{}, ""))
}

// =============================================================================
// Atomic unit
// =============================================================================

func TestStore_RunAtomicRollsBack(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.DB, "J", "133456789", 10)
	testutil.CreateEntry(t, s.DB, u.ID, "Recycling", 10, time.Now().UTC())

	boom := errors.New("boom")
	err := s.Store.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.Transactions.DeleteForUser(ctx, u.ID); err != nil {
			return err
		}
		if err := s.Users.Delete(ctx, u.ID); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable, "caller errors are not store failures")

	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.User{}, "id = ?", u.ID))
	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.Transaction{}, "user_id = ?", u.ID))
}

func TestStore_RunAtomicPassesDomainErrors(t *testing.T) {
	s := testutil.SetupStores(t)
	err := s.Store.RunAtomic(context.Background(), func(ctx context.Context) error {
		return domain.ErrOutOfStock
	})
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStore_RunAtomicKeepsCallerErrors(t *testing.T) {
	s := testutil.SetupStores(t)
	invariant := fmt.Errorf("reserved id held by a student: %w", domain.ErrConflict)

	err := s.Store.RunAtomic(context.Background(), func(ctx context.Context) error {
		return invariant
	})
	assert.Same(t, invariant, err)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStore_TimeoutSurfacesStoreUnavailable(t *testing.T) {
	gdb := testutil.SetupTestDB(t)
	store := repository.NewStore(gdb, 20*time.Millisecond)

	err := store.RunAtomic(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestStore_Ping(t *testing.T) {
	s := testutil.SetupStores(t)
	assert.NoError(t, s.Store.Ping(context.Background()))
}
