package database

import (
	"log"

	"tasknest/tasknest/models"

	"gorm.io/gorm"
)

// RunMigrations keeps the tasks table in sync with the model.
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Task{},
	)

	if err != nil {
		log.Printf("Migration failed: %v", err)
		return err
	}

	return nil
}
