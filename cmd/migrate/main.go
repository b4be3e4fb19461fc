package main

import (
	"ecovendix/internal/config" // Configuration
	"ecovendix/internal/db"     // Versioned migrations

	"github.com/sirupsen/logrus" // Logging
)

// Main entry point for migration
func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.LoadConfig() // Load configuration
	if err := db.Migrate(cfg.DSN()); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
}
