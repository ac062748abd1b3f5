package repository

import (
	"fmt"

	"eduhub/backend/models"

	"gorm.io/gorm"
)

// openSessionIndex guarantees at most one incomplete session per (user, test).
const openSessionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_iq_sessions_open
	ON iq_test_sessions (user_id, test_id) WHERE is_completed = false`

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Test{},
		&models.Question{},
		&models.Session{},
		&models.Result{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(openSessionIndex).Error; err != nil {
		return fmt.Errorf("create open session index: %w", err)
	}
	return nil
}
