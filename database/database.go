package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"connectsphere-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Info),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Chapter{},
		&models.Connection{},
		&models.Event{},
		&models.Attendee{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Composite indexes for the hot lookup paths. The unique indexes on
	// connections(pair_low, pair_high) and attendees(event_id, user_id)
	// come from the model tags and double as race guards.

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_connections_addressee_status ON connections(addressee_id, status)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for connections addressee: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_connections_requester_status ON connections(requester_id, status)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for connections requester: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for events date: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_events_chapter ON events(chapter_id)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for events chapter: %v\n", err)
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_attendees_user ON attendees(user_id)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for attendees user: %v\n", err)
	}

	return nil
}

// SeedData populates the database with initial data for development.
func SeedData(db *gorm.DB) error {
	var chapterCount int64
	db.Model(&models.Chapter{}).Count(&chapterCount)

	if chapterCount > 0 {
		fmt.Println("Database already has data, skipping seed")
		return nil
	}

	chapters := []models.Chapter{
		{ID: "chapter-berlin", Name: "Berlin Chapter", City: "Berlin"},
		{ID: "chapter-munich", Name: "Munich Chapter", City: "Munich"},
		{ID: "chapter-hamburg", Name: "Hamburg Chapter", City: "Hamburg"},
	}

	for _, chapter := range chapters {
		if err := db.Create(&chapter).Error; err != nil {
			fmt.Printf("Warning: Could not create chapter %s: %v\n", chapter.Name, err)
		}
	}

	fmt.Println("Database seeded with default chapters")
	return nil
}
