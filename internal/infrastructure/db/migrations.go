package db

import (
	"github.com/hivectl/backend/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Agent{},
		&domain.Task{},
		&domain.LogEntry{},
	)
	if err != nil {
		return err
	}

	return createCustomIndexes(db)
}

func createCustomIndexes(db *gorm.DB) error {
	// Poll lookups filter on both columns.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tasks_agent_pending
		ON tasks (agent_id, received)
	`).Error; err != nil {
		return err
	}

	return nil
}
