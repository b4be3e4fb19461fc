package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecovendix/internal/domain"
	"ecovendix/internal/repository"
	"ecovendix/internal/utils"

	"github.com/sirupsen/logrus"
)

// RecentHistorySize is the number of ledger entries shown on the dashboard.
const RecentHistorySize = 10

// AccountConfig holds the identifier and credential rules for signup.
type AccountConfig struct {
	AdminStudentID   string
	CredentialLength int
}

// DashboardView is everything the dashboard page renders for one user.
type DashboardView struct {
	User        *domain.User
	Products    []domain.Product
	History     []domain.Transaction
	Rank        int
	Leaderboard []LeaderboardEntry
}

// AccountService registers users and assembles their dashboard.
type AccountService interface {
	Signup(ctx context.Context, name, studentID, credential string) (*domain.User, error)
	Dashboard(ctx context.Context, caller domain.Identity) (*DashboardView, error)
}

type accountService struct {
	store        repository.Atomic
	users        repository.UserRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	leaderboard  *Leaderboard
	cfg          AccountConfig
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(store repository.Atomic, users repository.UserRepository, products repository.ProductRepository, transactions repository.TransactionRepository, leaderboard *Leaderboard, cfg AccountConfig) AccountService {
	return &accountService{
		store:        store,
		users:        users,
		products:     products,
		transactions: transactions,
		leaderboard:  leaderboard,
		cfg:          cfg,
	}
}

// Signup creates a non-admin user with a zero balance.
func (s *accountService) Signup(ctx context.Context, name, studentID, credential string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "Name is required.")
	}
	if !utils.IsValidStudentID(studentID) {
		return nil, domain.NewValidationError("student_id", MsgInvalidStudentID)
	}
	if studentID == s.cfg.AdminStudentID {
		return nil, domain.ErrDuplicateIdentifier
	}
	if !utils.IsValidCredential(credential, s.cfg.CredentialLength) {
		return nil, domain.NewValidationError("password", CredentialMessage(s.cfg.CredentialLength))
	}

	hash, err := utils.HashCredential(credential)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}
	user := &domain.User{
		Name:         name,
		StudentID:    studentID,
		PasswordHash: hash,
	}
	err = s.store.RunAtomic(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentifier) {
			logrus.WithField("student_id", studentID).Info("Signup rejected, identifier taken")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"student_id": user.StudentID,
	}).Info("User registered")
	s.leaderboard.Invalidate(ctx)
	return user, nil
}

// Dashboard loads the caller's balance, the catalog, recent ledger entries,
// the caller's rank and the leaderboard.
func (s *accountService) Dashboard(ctx context.Context, caller domain.Identity) (*DashboardView, error) {
	if caller.Anonymous() {
		return nil, domain.ErrForbidden
	}
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	history, err := s.transactions.RecentForUser(ctx, user.ID, RecentHistorySize)
	if err != nil {
		return nil, err
	}
	rank, err := s.users.Rank(ctx, user)
	if err != nil {
		return nil, err
	}
	top, err := s.leaderboard.Top(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardView{
		User:        user,
		Products:    products,
		History:     history,
		Rank:        rank,
		Leaderboard: top,
	}, nil
}
