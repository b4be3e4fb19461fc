package db

import (
	"context"
	"errors"
	"fmt"

	"ecovendix/internal/domain"
	"ecovendix/internal/repository"
	"ecovendix/internal/utils"

	"github.com/sirupsen/logrus"
)

// AdminAccount describes the reserved admin row created on first start.
type AdminAccount struct {
	StudentID        string
	Credential       string
	CredentialLength int
}

// Bootstrap seeds the default catalog into an empty products table and creates
// the reserved admin account when it is missing. Safe to run on every start.
func Bootstrap(ctx context.Context, store repository.Atomic, users repository.UserRepository, products repository.ProductRepository, admin AdminAccount) error {
	return store.RunAtomic(ctx, func(ctx context.Context) error {
		seeded, err := products.SeedIfEmpty(ctx, domain.DefaultCatalog())
		if err != nil {
			return err
		}
		if seeded > 0 {
			logrus.WithField("products", seeded).Info("Seeded default catalog")
		}

		existing, err := users.FindByStudentID(ctx, admin.StudentID)
		switch {
		case err == nil:
			if !existing.IsAdmin {
				return fmt.Errorf("reserved admin id %s belongs to a non-admin user: %w", admin.StudentID, domain.ErrConflict)
			}
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		if !utils.IsValidCredential(admin.Credential, admin.CredentialLength) {
			return fmt.Errorf("ADMIN_CREDENTIAL must be %d digits to create the admin account: %w", admin.CredentialLength, domain.ErrValidation)
		}
		hash, err := utils.HashCredential(admin.Credential)
		if err != nil {
			return err
		}
		if err := users.Create(ctx, &domain.User{
			Name:         "Admin",
			StudentID:    admin.StudentID,
			PasswordHash: hash,
			IsAdmin:      true,
		}); err != nil {
			return err
		}
		logrus.WithField("student_id", admin.StudentID).Info("Created admin account")
		return nil
	})
}
