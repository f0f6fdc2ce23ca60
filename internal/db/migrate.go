package db

import (
	"gorm.io/gorm"

	"github.com/mahaoyang/nuxtcom/internal/models"
)

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth & authorization catalog
		&models.User{},
		&models.Role{},
		&models.Permission{},
		// Reputation audit trail
		&models.CreditLedgerEntry{},
		&models.BehaviorLogEntry{},
		// Content entities
		&models.BlogPost{},
		&models.Comment{},
		&models.Ranking{},
	)
}

// Seed initializes the database with required seed data.
// Should be called after Migrate.
func Seed(db *gorm.DB) error {
	return SeedRoles(db)
}
