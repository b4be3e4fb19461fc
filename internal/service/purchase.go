package service

import (
	"context"

	"ecovendix/internal/domain"
	"ecovendix/internal/metrics"
	"ecovendix/internal/repository"

	"github.com/sirupsen/logrus"
)

// PurchaseResult describes a committed purchase.
type PurchaseResult struct {
	Product domain.Product
	Balance int
	Stock   int
	Entry   *domain.Transaction
}

// PurchaseService redeems points for products.
type PurchaseService interface {
	Purchase(ctx context.Context, userID, productID uint) (*PurchaseResult, error)
}

type purchaseService struct {
	store        repository.Atomic
	users        repository.UserRepository
	products     repository.ProductRepository
	transactions repository.TransactionRepository
	leaderboard  *Leaderboard
}

// NewPurchaseService creates a new PurchaseService instance.
func NewPurchaseService(store repository.Atomic, users repository.UserRepository, products repository.ProductRepository, transactions repository.TransactionRepository, leaderboard *Leaderboard) PurchaseService {
	return &purchaseService{
		store:        store,
		users:        users,
		products:     products,
		transactions: transactions,
		leaderboard:  leaderboard,
	}
}

// Purchase debits the product cost from the user, takes one unit of stock and
// appends a ledger entry, all in one transaction. Checks run in a fixed order:
// missing user or product, then stock, then points.
func (s *purchaseService) Purchase(ctx context.Context, userID, productID uint) (*PurchaseResult, error) {
	var result PurchaseResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		// Lock order is user then product everywhere
		user, err := s.users.FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		product, err := s.products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		if !product.InStock() {
			return domain.ErrOutOfStock
		}
		if user.Points < product.CostPoints {
			return domain.ErrInsufficientPoints
		}

		if err := s.users.DebitPoints(ctx, user.ID, product.CostPoints); err != nil {
			return err
		}
		if err := s.products.DecrementStock(ctx, product.ID); err != nil {
			return err
		}
		entry, err := s.transactions.Append(ctx, user.ID, product.Name, -product.CostPoints)
		if err != nil {
			return err
		}

		result = PurchaseResult{
			Product: *product,
			Balance: user.Points - product.CostPoints,
			Stock:   product.StockQuantity - 1,
			Entry:   entry,
		}
		return nil
	})

	fields := logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
	}
	if err != nil {
		reason := domain.RejectionReason(err)
		if reason == "" {
			metrics.RecordPurchase("error", 0)
			logrus.WithFields(fields).WithError(err).Error("Purchase failed")
		} else {
			metrics.RecordPurchase(reason, 0)
			logrus.WithFields(fields).WithField("reason", reason).Info("Purchase rejected")
		}
		return nil, err
	}

	metrics.RecordPurchase("success", result.Product.CostPoints)
	fields["points"] = -result.Product.CostPoints
	fields["balance"] = result.Balance
	logrus.WithFields(fields).Info("Purchase transaction")
	s.leaderboard.Invalidate(ctx)
	return &result, nil
}
