package service_test

import (
	"context"
	"testing"
	"time"

	"ecovendix/internal/service"
	"ecovendix/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const adminStudentID = "000000000"

type fixture struct {
	*testutil.Stores
	Redis       *redis.Client
	Mini        *miniredis.Miniredis
	Leaderboard *service.Leaderboard
	Sessions    service.SessionService
	Purchases   service.PurchaseService
	Admin       service.AdminService
	Accounts    service.AccountService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	stores := testutil.SetupStores(t)
	rdb, mr := testutil.SetupTestRedis(t)
	board := service.NewLeaderboard(stores.Users, rdb, 30*time.Second)
	sessions := service.NewSessionService(stores.Users, rdb, service.SessionConfig{
		Secret:           testutil.TestSecret,
		TTL:              time.Hour,
		CredentialLength: 4,
	})
	return &fixture{
		Stores:      stores,
		Redis:       rdb,
		Mini:        mr,
		Leaderboard: board,
		Sessions:    sessions,
		Purchases:   service.NewPurchaseService(stores.Store, stores.Users, stores.Products, stores.Transactions, board),
		Admin:       service.NewAdminService(stores.Store, stores.Users, stores.Products, stores.Transactions, sessions, board),
		Accounts: service.NewAccountService(stores.Store, stores.Users, stores.Products, stores.Transactions, board, service.AccountConfig{
			AdminStudentID:   adminStudentID,
			CredentialLength: 4,
		}),
	}
}

func background() context.Context {
	return context.Background()
}
