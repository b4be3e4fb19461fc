// Package testutil provides database, redis and fixture helpers for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ecovendix/internal/db"
	"ecovendix/internal/domain"
	"ecovendix/internal/repository"
	"ecovendix/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestSecret signs session tokens in tests
const TestSecret = "this-is-a-test-secret-with-32-bytes!"

// TestCredential is the credential given to every fixture user
const TestCredential = "1234"

var dbCounter atomic.Int64

// SetupTestDB opens a private in-memory sqlite database with the full schema.
// A single connection serialises transactions the way row locks do on MySQL.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:kiosk_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", dbCounter.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return gdb
}

// SetupTestRedis starts a miniredis server and returns a client bound to it.
func SetupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

// Stores bundles the repositories over one test database.
type Stores struct {
	DB           *gorm.DB
	Store        *repository.Store
	Users        repository.UserRepository
	Products     repository.ProductRepository
	Transactions repository.TransactionRepository
}

// SetupStores creates repositories over a fresh test database.
func SetupStores(t *testing.T) *Stores {
	t.Helper()

	gdb := SetupTestDB(t)
	store := repository.NewStore(gdb, 5*time.Second)
	return &Stores{
		DB:           gdb,
		Store:        store,
		Users:        repository.NewUserRepository(store),
		Products:     repository.NewProductRepository(store),
		Transactions: repository.NewTransactionRepository(store),
	}
}

// CreateUser inserts a non-admin user with TestCredential and the given balance.
func CreateUser(t *testing.T, gdb *gorm.DB, name, studentID string, points int) *domain.User {
	t.Helper()
	return createUser(t, gdb, name, studentID, points, false)
}

// CreateAdmin inserts an admin user with TestCredential.
func CreateAdmin(t *testing.T, gdb *gorm.DB, studentID string) *domain.User {
	t.Helper()
	return createUser(t, gdb, "Admin", studentID, 0, true)
}

var (
	hashOnce sync.Once
	testHash string
	hashErr  error
)

func createUser(t *testing.T, gdb *gorm.DB, name, studentID string, points int, isAdmin bool) *domain.User {
	t.Helper()

	hashOnce.Do(func() { testHash, hashErr = utils.HashCredential(TestCredential) })
	if hashErr != nil {
		t.Fatalf("Failed to hash credential: %v", hashErr)
	}
	user := &domain.User{
		Name:         name,
		StudentID:    studentID,
		PasswordHash: testHash,
		Points:       points,
		IsAdmin:      isAdmin,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", studentID, err)
	}
	return user
}

// CreateProduct inserts a product.
func CreateProduct(t *testing.T, gdb *gorm.DB, name string, cost, stock int) *domain.Product {
	t.Helper()

	product := &domain.Product{Name: name, CostPoints: cost, StockQuantity: stock, IconName: strings.ToLower(name) + ".png"}
	if err := gdb.Create(product).Error; err != nil {
		t.Fatalf("Failed to create product %s: %v", name, err)
	}
	return product
}

// CreateEntry inserts a ledger entry with an explicit timestamp.
func CreateEntry(t *testing.T, gdb *gorm.DB, userID uint, label string, delta int, at time.Time) *domain.Transaction {
	t.Helper()

	entry := &domain.Transaction{UserID: userID, ItemName: label, PointChange: delta, Timestamp: at}
	if err := gdb.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create ledger entry: %v", err)
	}
	return entry
}

// Reload reads the current state of a user.
func Reload(t *testing.T, gdb *gorm.DB, id uint) domain.User {
	t.Helper()

	var user domain.User
	if err := gdb.First(&user, id).Error; err != nil {
		t.Fatalf("Failed to reload user %d: %v", id, err)
	}
	return user
}

// ReloadProduct reads the current state of a product.
func ReloadProduct(t *testing.T, gdb *gorm.DB, id uint) domain.Product {
	t.Helper()

	var product domain.Product
	if err := gdb.First(&product, id).Error; err != nil {
		t.Fatalf("Failed to reload product %d: %v", id, err)
	}
	return product
}

// CountRows counts rows of a model matching an optional condition.
func CountRows(t *testing.T, gdb *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var count int64
	q := gdb.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return count
}
