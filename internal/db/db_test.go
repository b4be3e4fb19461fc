package db_test

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"ecovendix/internal/db"
	"ecovendix/internal/domain"
	"ecovendix/internal/testutil"
	"ecovendix/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminAccount(credential string) db.AdminAccount {
	return db.AdminAccount{StudentID: "000000000", Credential: credential, CredentialLength: 4}
}

func TestBootstrap(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()

	require.NoError(t, db.Bootstrap(ctx, s.Store, s.Users, s.Products, adminAccount("2468")))

	products, err := s.Products.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 6)
	assert.Equal(t, "Water", products[0].Name)
	assert.Equal(t, 15, products[0].CostPoints)
	assert.Equal(t, 11, products[0].StockQuantity)
	assert.Equal(t, "Biscuit", products[5].Name)
	assert.False(t, products[5].InStock())

	admin, err := s.Users.FindByStudentID(ctx, "000000000")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, 0, admin.Points)
	assert.True(t, utils.VerifyCredential(admin.PasswordHash, "2468"))
}

func TestBootstrapIsIdempotent(t *testing.T) {
	s := testutil.SetupStores(t)
	ctx := context.Background()

	require.NoError(t, db.Bootstrap(ctx, s.Store, s.Users, s.Products, adminAccount("2468")))
	require.NoError(t, s.DB.Model(&domain.Product{}).Where("name = ?", "Water").Update("stock_quantity", 2).Error)

	// A later start with a different credential leaves the existing admin alone
	require.NoError(t, db.Bootstrap(ctx, s.Store, s.Users, s.Products, adminAccount("1357")))

	assert.Equal(t, int64(6), testutil.CountRows(t, s.DB, &domain.Product{}, ""))
	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.User{}, "is_admin = ?", true))
	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.Product{}, "name = ? AND stock_quantity = ?", "Water", 2))

	admin, err := s.Users.FindByStudentID(ctx, "000000000")
	require.NoError(t, err)
	assert.True(t, utils.VerifyCredential(admin.PasswordHash, "2468"))
}

func TestBootstrapKeepsExistingCatalog(t *testing.T) {
	s := testutil.SetupStores(t)
	testutil.CreateProduct(t, s.DB, "Juice", 20, 4)

	require.NoError(t, db.Bootstrap(context.Background(), s.Store, s.Users, s.Products, adminAccount("2468")))
	assert.Equal(t, int64(1), testutil.CountRows(t, s.DB, &domain.Product{}, ""))
}

func TestBootstrapRejects(t *testing.T) {
	t.Run("malformed admin credential", func(t *testing.T) {
		s := testutil.SetupStores(t)
		err := db.Bootstrap(context.Background(), s.Store, s.Users, s.Products, adminAccount(""))
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, int64(0), testutil.CountRows(t, s.DB, &domain.User{}, ""))
		assert.Equal(t, int64(0), testutil.CountRows(t, s.DB, &domain.Product{}, ""), "seed rolls back with the failed admin step")
	})

	t.Run("reserved id taken by a student", func(t *testing.T) {
		s := testutil.SetupStores(t)
		testutil.CreateUser(t, s.DB, "Squatter", "000000000", 5)
		err := db.Bootstrap(context.Background(), s.Store, s.Users, s.Products, adminAccount("2468"))
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Equal(t, int64(0), testutil.CountRows(t, s.DB, &domain.Product{}, ""), "seed rolls back with the failed admin step")
	})
}

func TestMigrationSourcePairsUpAndDown(t *testing.T) {
	src, err := db.Source()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)

	count := 0
	for {
		count++
		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "version %d has no up file", version)
		up.Close()
		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "version %d has no down file", version)
		down.Close()

		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		version = next
	}
	assert.Equal(t, 4, count)
}
