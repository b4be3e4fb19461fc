package repository

import (
	"context"
	"fmt"

	"ecovendix/internal/domain"

	"gorm.io/gorm"
)

// UserRepository defines the credential store operations.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*domain.User, error)
	FindByStudentID(ctx context.Context, studentID string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	ListNonAdmin(ctx context.Context) ([]domain.User, error)
	TopByPoints(ctx context.Context, limit int) ([]domain.User, error)
	Rank(ctx context.Context, user *domain.User) (int, error)
	SetPoints(ctx context.Context, id uint, points int) error
	AddPoints(ctx context.Context, id uint, delta int) error
	DebitPoints(ctx context.Context, id uint, cost int) error
	Delete(ctx context.Context, id uint) error
	DeleteAllNonAdmin(ctx context.Context) (int64, error)
}

type userRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(store *Store) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var user domain.User
	if err := db.First(&user, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("find user %d", id))
	}
	return &user, nil
}

func (r *userRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.User, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var user domain.User
	if err := forUpdate(db).First(&user, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("lock user %d", id))
	}
	return &user, nil
}

func (r *userRepository) FindByStudentID(ctx context.Context, studentID string) (*domain.User, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var user domain.User
	if err := db.Where("student_id = ?", studentID).First(&user).Error; err != nil {
		return nil, translate(err, "find user by student id")
	}
	return &user, nil
}

// Create inserts a user, failing with ErrDuplicateIdentifier when the student id is taken.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&domain.User{}).Where("student_id = ?", user.StudentID).Count(&count).Error; err != nil {
		return translate(err, "check student id")
	}
	if count > 0 {
		return fmt.Errorf("create user: %w", domain.ErrDuplicateIdentifier)
	}
	if err := db.Create(user).Error; err != nil {
		return translate(err, "create user")
	}
	return nil
}

func (r *userRepository) ListNonAdmin(ctx context.Context) ([]domain.User, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var users []domain.User
	if err := db.Where("is_admin = ?", false).Order("id").Find(&users).Error; err != nil {
		return nil, translate(err, "list users")
	}
	return users, nil
}

// TopByPoints returns non-admin users ordered by points desc, id asc.
func (r *userRepository) TopByPoints(ctx context.Context, limit int) ([]domain.User, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var users []domain.User
	err := db.Where("is_admin = ?", false).
		Order("points desc").
		Order("id asc").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, translate(err, "leaderboard")
	}
	return users, nil
}

// Rank returns the 1-based leaderboard position of a non-admin user using the
// same ordering as TopByPoints.
func (r *userRepository) Rank(ctx context.Context, user *domain.User) (int, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	var ahead int64
	err := db.Model(&domain.User{}).
		Where("is_admin = ?", false).
		Where("points > ? OR (points = ? AND id < ?)", user.Points, user.Points, user.ID).
		Count(&ahead).Error
	if err != nil {
		return 0, translate(err, fmt.Sprintf("rank user %d", user.ID))
	}
	return int(ahead) + 1, nil
}

// SetPoints overwrites the balance, clamped at zero.
func (r *userRepository) SetPoints(ctx context.Context, id uint, points int) error {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Model(&domain.User{}).Where("id = ?", id).Update("points", max(points, 0))
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("set points for user %d", id))
	}
	if res.RowsAffected == 0 {
		return r.missingOrUnchanged(db, id)
	}
	return nil
}

// AddPoints credits delta points. The update only applies while the result stays non-negative.
func (r *userRepository) AddPoints(ctx context.Context, id uint, delta int) error {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Model(&domain.User{}).
		Where("id = ? AND points + ? >= 0", id, delta).
		Update("points", gorm.Expr("points + ?", delta))
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("add points for user %d", id))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("add points for user %d: %w", id, domain.ErrInsufficientPoints)
	}
	return nil
}

// DebitPoints subtracts cost only when the balance covers it.
func (r *userRepository) DebitPoints(ctx context.Context, id uint, cost int) error {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Model(&domain.User{}).
		Where("id = ? AND points >= ?", id, cost).
		Update("points", gorm.Expr("points - ?", cost))
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("debit user %d", id))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("debit user %d: %w", id, domain.ErrInsufficientPoints)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Delete(&domain.User{}, id)
	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("delete user %d", id))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *userRepository) DeleteAllNonAdmin(ctx context.Context) (int64, error) {
	db, cancel := r.store.conn(ctx)
	defer cancel()

	res := db.Where("is_admin = ?", false).Delete(&domain.User{})
	if res.Error != nil {
		return 0, translate(res.Error, "delete users")
	}
	return res.RowsAffected, nil
}

// missingOrUnchanged distinguishes an absent row from an update that wrote the same value.
func (r *userRepository) missingOrUnchanged(db *gorm.DB, id uint) error {
	var count int64
	if err := db.Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(err, fmt.Sprintf("find user %d", id))
	}
	if count == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
