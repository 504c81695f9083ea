package database

import (
	"github.com/nexusesi/notifier/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the notifier reads or writes.
// Domain tables are owned by the main application; migrating them here keeps
// standalone deployments and tests self-contained.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Committee{},
		&models.Task{},
		&models.Incident{},
		&models.Progress{},
		&models.Alert{},
		&models.Notification{},
	)
}
