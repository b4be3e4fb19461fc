// Package repository provides the data access layer for users, products and the ledger.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecovendix/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Atomic runs a unit of work in a single database transaction.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store owns the gorm handle shared by the repositories and bounds every call with a timeout.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewStore creates a Store. A non-positive timeout falls back to five seconds.
func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

type txKey struct{}

// RunAtomic executes fn inside one transaction. Repositories called with the
// context handed to fn join that transaction. Any error rolls everything back.
// Errors returned by fn come back unchanged, except context expiry which is a
// store timeout. Begin and commit failures are translated.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(context.WithValue(ctx, txKey{}, tx))
		return fnErr
	})
	if fnErr != nil && !errors.Is(fnErr, context.DeadlineExceeded) && !errors.Is(fnErr, context.Canceled) {
		return fnErr
	}
	return translate(err, "transaction")
}

// Ping checks the database is reachable within the store timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return translate(err, "ping")
	}
	return translate(sqlDB.PingContext(ctx), "ping")
}

// conn returns the transaction bound to ctx, or a timeout-bounded handle on the pool.
// The returned cancel func must always be called.
func (s *Store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx, func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// forUpdate adds a row lock when running inside a transaction.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// translate maps gorm errors onto the domain taxonomy. Domain errors pass through,
// record-not-found becomes ErrNotFound, duplicate keys become ErrDuplicateIdentifier
// and anything else is reported as ErrStoreUnavailable.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateIdentifier)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrAuthFailure,
		domain.ErrNotFound,
		domain.ErrConflict,
		domain.ErrForbidden,
		domain.ErrStoreUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
