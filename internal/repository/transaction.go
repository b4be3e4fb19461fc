package repository

import (
	"context"
	"fmt"
	"time"

	"ecovendix/internal/domain"

	"gorm.io/gorm"
)

// TransactionRepository defines the ledger store operations.
type TransactionRepository interface {
	Append(ctx context.Context, userID uint, label string, delta int) (*domain.Transaction, error)
	RecentForUser(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error)
	DeleteForUser(ctx context.Context, userID uint) (int64, error)
	DeleteForNonAdmin(ctx context.Context) (int64, error)
}

type transactionRepository struct {
	store *Store
	now   func() time.Time
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(store *Store) TransactionRepository {
	return &transactionRepository{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Append records one immutable ledger entry for an existing user.
func (r *transactionRepository) Append(ctx context.Context, userID uint, label string, delta int) (*domain.Transaction, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("find user %d", userID))
	}
	if count == 0 {
		return nil, fmt.Errorf("append ledger entry for user %d: %w", userID, domain.ErrNotFound)
	}

	entry := &domain.Transaction{
		UserID:      userID,
		ItemName:    label,
		PointChange: delta,
		Timestamp:   r.now(),
	}
	if err := db.Create(entry).Error; err != nil {
		return nil, translate(err, "append ledger entry")
	}
	return entry, nil
}

// RecentForUser returns the newest entries first, at most limit of them.
func (r *transactionRepository) RecentForUser(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var entries []domain.Transaction
	err := db.Where("user_id = ?", userID).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, translate(err, fmt.Sprintf("ledger for user %d", userID))
	}
	return entries, nil
}

func (r *transactionRepository) DeleteForUser(ctx context.Context, userID uint) (int64, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Where("user_id = ?", userID).Delete(&domain.Transaction{})
	if res.Error != nil {
		return 0, translate(res.Error, fmt.Sprintf("delete ledger for user %d", userID))
	}
	return res.RowsAffected, nil
}

// DeleteForNonAdmin removes the ledger of every non-admin user.
func (r *transactionRepository) DeleteForNonAdmin(ctx context.Context) (int64, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	nonAdmins := db.Session(&gorm.Session{NewDB: true}).Model(&domain.User{}).Select("id").Where("is_admin = ?", false)
	res := db.Where("user_id IN (?)", nonAdmins).Delete(&domain.Transaction{})
	if res.Error != nil {
		return 0, translate(res.Error, "delete ledger")
	}
	return res.RowsAffected, nil
}
