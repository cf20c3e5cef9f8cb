package config

import (
	"os"

	"github.com/opoquest/opoquest-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var Database *gorm.DB

func Connect() error {
	var err error
	dbURL := os.Getenv("DB_URL")
	Database, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	err = Migrate(Database)
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}

// Migrate runs the schema migration for every model. Split out from
// Connect so package tests can run it against their own databases.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Question{},
		&models.Flashcard{},
		&models.PracticeSession{},
		&models.SessionItem{},
		&models.Response{},
		&models.Factor{},
		&models.Document{},
		&models.Subscription{},
		&models.WebhookEvent{},
		&models.ScheduledExam{},
	)
}
