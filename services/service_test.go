package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"connectsphere-api/models"
)

// fakeClock lets tests pin "now" for the event-date validation.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Chapter{},
		&models.Connection{},
		&models.Event{},
		&models.Attendee{},
	))

	return db
}

func createUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()

	company := "Acme Corp"
	position := "Engineer"
	city := "Berlin"
	user := models.User{
		ID:        id,
		FirstName: "Test",
		LastName:  id,
		Email:     fmt.Sprintf("%s@example.com", id),
		Password:  "$2a$10$dummy",
		Company:   &company,
		Position:  &position,
		City:      &city,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestEvent(t *testing.T, es *EventService, creatorID string, isPublic bool, inviteeIDs []string) *models.Event {
	t.Helper()

	event, err := es.CreateEvent(creatorID, CreateEventInput{
		Title:       "Networking Breakfast",
		Description: "Monthly networking breakfast",
		Type:        "networking",
		Date:        es.clock.Now().Add(72 * time.Hour),
		IsPublic:    isPublic,
		InviteeIDs:  inviteeIDs,
	})
	require.NoError(t, err)
	return event
}
