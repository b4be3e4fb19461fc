package db

import (
	"embed"  // Embedded migration files
	"errors" // Error inspection

	"ecovendix/internal/domain" // Importing domain models

	"github.com/golang-migrate/migrate/v4"                  // Versioned migrations
	_ "github.com/golang-migrate/migrate/v4/database/mysql" // MySQL migration driver
	"github.com/golang-migrate/migrate/v4/source"           // Migration source interface
	"github.com/golang-migrate/migrate/v4/source/iofs"      // Embedded filesystem source
	"github.com/sirupsen/logrus"                            // Logging
	"gorm.io/gorm"                                          // GORM ORM library
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Source returns the embedded, versioned migration files
func Source() (source.Driver, error) {
	return iofs.New(migrationFiles, "migrations")
}

// Migrate applies every pending versioned migration to the MySQL database behind dsn.
// Already-applied versions are recorded in schema_migrations and skipped.
func Migrate(dsn string) error {
	src, err := Source()
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "mysql://"+dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"version": version, // Schema version after migration
		"dirty":   dirty,   // Whether the last migration failed midway
	}).Info("Migration completed.")
	return nil
}

// AutoMigrate creates the schema from the gorm models. Used for throwaway
// databases (tests, local sqlite) where the versioned MySQL files do not apply.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Product{}, &domain.Transaction{})
}
