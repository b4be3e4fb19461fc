package repository

import (
	"context"
	"fmt"

	"ecovendix/internal/domain"

	"gorm.io/gorm"
)

// ProductRepository defines the catalog store operations.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id uint) (*domain.Product, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*domain.Product, error)
	SetStock(ctx context.Context, id uint, quantity int) error
	DecrementStock(ctx context.Context, id uint) error
	SeedIfEmpty(ctx context.Context, products []domain.Product) (int, error)
}

type productRepository struct {
	store *Store
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(store *Store) ProductRepository {
	return &productRepository{store: store}
}

// List returns the catalog in insertion order.
func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var products []domain.Product
	if err := db.Order("id").Find(&products).Error; err != nil {
		return nil, translate(err, "list products")
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*domain.Product, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var product domain.Product
	if err := db.First(&product, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("find product %d", id))
	}
	return &product, nil
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Product, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var product domain.Product
	if err := forUpdate(db).First(&product, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("lock product %d", id))
	}
	return &product, nil
}

// SetStock overwrites the stock level, clamped at zero.
func (r *productRepository) SetStock(ctx context.Context, id uint, quantity int) error {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Model(&domain.Product{}).Where("id = ?", id).Update("stock_quantity", max(quantity, 0))
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("set stock for product %d", id))
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(&domain.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(err, fmt.Sprintf("find product %d", id))
	}
	if count == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DecrementStock removes one unit, refusing to go below zero.
func (r *productRepository) DecrementStock(ctx context.Context, id uint) error {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Model(&domain.Product{}).
		Where("id = ? AND stock_quantity > 0", id).
		Update("stock_quantity", gorm.Expr("stock_quantity - 1"))
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("decrement stock for product %d", id))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrOutOfStock)
	}
	return nil
}

// SeedIfEmpty inserts products only when the catalog has no rows and returns how many were inserted.
func (r *productRepository) SeedIfEmpty(ctx context.Context, products []domain.Product) (int, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&domain.Product{}).Count(&count).Error; err != nil {
		return 0, translate(err, "count products")
	}
	if count > 0 || len(products) == 0 {
		return 0, nil
	}
	if err := db.Create(&products).Error; err != nil {
		return 0, translate(err, "seed products")
	}
	return len(products), nil
}
