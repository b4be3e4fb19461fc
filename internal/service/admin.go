package service

import (
	"context"
	"fmt"
	"strings"

	"ecovendix/internal/domain"
	"ecovendix/internal/metrics"
	"ecovendix/internal/repository"

	"github.com/sirupsen/logrus"
)

// DefaultCreditLabel labels ledger entries for points credited by an admin.
const DefaultCreditLabel = "Recycling"

// AdminOverview is the data behind the admin panel.
type AdminOverview struct {
	Users      []domain.User
	TotalUsers int
	Products   []domain.Product
}

// AdminService holds the privileged mutations. Every method takes the caller
// identity and fails with ErrForbidden unless it is an admin.
type AdminService interface {
	Overview(ctx context.Context, caller domain.Identity) (*AdminOverview, error)
	SetUserPoints(ctx context.Context, caller domain.Identity, userID uint, points int) (int, error)
	CreditPoints(ctx context.Context, caller domain.Identity, userID uint, delta int, label string) (int, error)
	DeleteUser(ctx context.Context, caller domain.Identity, userID uint) error
	DeleteAllUsers(ctx context.Context, caller domain.Identity) (int64, error)
	SetProductStock(ctx context.Context, caller domain.Identity, productID uint, quantity int) (int, error)
}

type adminService struct {
	store        repository.Atomic
	users        repository.UserRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	sessions     SessionService
	leaderboard  *Leaderboard
}

// NewAdminService creates a new AdminService instance.
func NewAdminService(store repository.Atomic, users repository.UserRepository, products repository.ProductRepository, transactions repository.TransactionRepository, sessions SessionService, leaderboard *Leaderboard) AdminService {
	return &adminService{
		store:        store,
		users:        users,
		products:     products,
		transactions: transactions,
		sessions:     sessions,
		leaderboard:  leaderboard,
	}
}

func requireAdmin(caller domain.Identity) error {
	if caller.Anonymous() || !caller.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// lockEditable locks a user row that admin operations may change. Admin accounts are not editable.
func (s *adminService) lockEditable(ctx context.Context, userID uint) (*domain.User, error) {
	user, err := s.users.FindByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin {
		return nil, fmt.Errorf("user %d is an admin: %w", userID, domain.ErrForbidden)
	}
	return user, nil
}

func (s *adminService) audit(caller domain.Identity, action string, err error, fields logrus.Fields) {
	metrics.RecordAdminAction(action, err)
	entry := logrus.WithFields(fields).WithFields(logrus.Fields{
		"admin_id": caller.UserID,
		"action":   action,
	})
	if err != nil {
		entry.WithError(err).Warn("Admin action failed")
		return
	}
	entry.Info("Admin action")
}

func (s *adminService) Overview(ctx context.Context, caller domain.Identity) (*AdminOverview, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.users.ListNonAdmin(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminOverview{Users: users, TotalUsers: len(users), Products: products}, nil
}

// SetUserPoints overwrites a non-admin balance, clamped at zero, and returns the stored value.
func (s *adminService) SetUserPoints(ctx context.Context, caller domain.Identity, userID uint, points int) (int, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	stored := max(points, 0)
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.lockEditable(ctx, userID); err != nil {
			return err
		}
		return s.users.SetPoints(ctx, userID, stored)
	})
	s.audit(caller, "update_points", err, logrus.Fields{"user_id": userID, "points": stored})
	if err != nil {
		return 0, err
	}
	s.leaderboard.Invalidate(ctx)
	return stored, nil
}

// CreditPoints adds delta points to a non-admin user and records a positive
// ledger entry. Returns the new balance.
func (s *adminService) CreditPoints(ctx context.Context, caller domain.Identity, userID uint, delta int, label string) (int, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	if delta <= 0 {
		return 0, domain.NewValidationError("points", "Credited points must be positive.")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultCreditLabel
	}

	var balance int
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		user, err := s.lockEditable(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.users.AddPoints(ctx, userID, delta); err != nil {
			return err
		}
		if _, err := s.transactions.Append(ctx, userID, label, delta); err != nil {
			return err
		}
		balance = user.Points + delta
		return nil
	})
	s.audit(caller, "credit_points", err, logrus.Fields{"user_id": userID, "points": delta, "label": label})
	if err != nil {
		return 0, err
	}
	s.leaderboard.Invalidate(ctx)
	return balance, nil
}

// DeleteUser removes a non-admin user together with its ledger entries.
func (s *adminService) DeleteUser(ctx context.Context, caller domain.Identity, userID uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	var removed int64
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		if _, err := s.lockEditable(ctx, userID); err != nil {
			return err
		}
		n, err := s.transactions.DeleteForUser(ctx, userID)
		if err != nil {
			return err
		}
		removed = n
		return s.users.Delete(ctx, userID)
	})
	s.audit(caller, "delete_user", err, logrus.Fields{"user_id": userID, "ledger_entries": removed})
	if err != nil {
		return err
	}
	s.revoke(ctx, userID)
	s.leaderboard.Invalidate(ctx)
	return nil
}

// DeleteAllUsers removes every non-admin user and their ledgers. Admins are kept.
func (s *adminService) DeleteAllUsers(ctx context.Context, caller domain.Identity) (int64, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	var (
		deleted int64
		ids     []uint
	)
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		users, err := s.users.ListNonAdmin(ctx)
		if err != nil {
			return err
		}
		ids = make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		if _, err := s.transactions.DeleteForNonAdmin(ctx); err != nil {
			return err
		}
		deleted, err = s.users.DeleteAllNonAdmin(ctx)
		return err
	})
	s.audit(caller, "delete_all_users", err, logrus.Fields{"users": deleted})
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.revoke(ctx, id)
	}
	s.leaderboard.Invalidate(ctx)
	return deleted, nil
}

// SetProductStock overwrites a product's stock, clamped at zero, and returns the stored value.
func (s *adminService) SetProductStock(ctx context.Context, caller domain.Identity, productID uint, quantity int) (int, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	stored := max(quantity, 0)
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		return s.products.SetStock(ctx, productID, stored)
	})
	s.audit(caller, "update_stock", err, logrus.Fields{"product_id": productID, "stock_quantity": stored})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

func (s *adminService) revoke(ctx context.Context, userID uint) {
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Session revocation failed")
	}
}
