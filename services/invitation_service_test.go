package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"connectsphere-api/models"
	"connectsphere-api/utils"
)

func newInvitationService(t *testing.T) (*InvitationService, *EventService, *gorm.DB) {
	db := setupTestDB(t)
	es := NewEventService(db, newFakeClock(), nil)
	return NewInvitationService(db, nil), es, db
}

func TestAddInviteesAuthorization(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")
	createUser(t, db, "bob")
	createUser(t, db, "carol")

	event := createTestEvent(t, es, "organizer", false, []string{"bob"})

	_, err := is.AddInvitees(event.ID, "bob", []string{"carol"})
	requireKind(t, err, utils.KindForbidden)

	_, err = is.AddInvitees("missing-event", "organizer", []string{"carol"})
	requireKind(t, err, utils.KindNotFound)

	_, err = is.AddInvitees(event.ID, "organizer", nil)
	requireKind(t, err, utils.KindInvalidArgument)
}

func TestAddInviteesPublicEventRejected(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")
	createUser(t, db, "bob")

	event := createTestEvent(t, es, "organizer", true, nil)

	_, err := is.AddInvitees(event.ID, "organizer", []string{"bob"})
	requireKind(t, err, utils.KindInvalidState)
}

func TestAddInviteesSkipsExisting(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")
	createUser(t, db, "bob")
	createUser(t, db, "dave")

	event := createTestEvent(t, es, "organizer", false, []string{"bob"})

	// bob is already invited, only dave is new.
	result, err := is.AddInvitees(event.ID, "organizer", []string{"bob", "dave"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Invited)
	assert.Equal(t, []string{"bob"}, result.SkippedUserIDs)
	assert.False(t, result.AllAlreadyInvited)

	var dave models.Attendee
	require.NoError(t, db.Where("event_id = ? AND user_id = ?", event.ID, "dave").First(&dave).Error)
	assert.Equal(t, models.AttendeeStatusInvited, dave.Status)
	assert.Equal(t, models.AttendeeRoleAttendee, dave.Role)
}

func TestAddInviteesAllAlreadyInvited(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")
	createUser(t, db, "bob")

	event := createTestEvent(t, es, "organizer", false, []string{"bob"})

	// Not an error: the bulk operation just has nothing left to do.
	result, err := is.AddInvitees(event.ID, "organizer", []string{"bob"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Invited)
	assert.True(t, result.AllAlreadyInvited)
}

func TestAddInviteesSkipsRespondedUsers(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")
	createUser(t, db, "bob")

	event := createTestEvent(t, es, "organizer", false, []string{"bob"})

	_, err := es.Rsvp(event.ID, "bob", models.AttendeeStatusGoing)
	require.NoError(t, err)

	// Re-inviting a responded user must not reset their status.
	result, err := is.AddInvitees(event.ID, "organizer", []string{"bob"})
	require.NoError(t, err)
	assert.True(t, result.AllAlreadyInvited)

	var bob models.Attendee
	require.NoError(t, db.Where("event_id = ? AND user_id = ?", event.ID, "bob").First(&bob).Error)
	assert.Equal(t, models.AttendeeStatusGoing, bob.Status)
}

func TestInvitationStats(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")
	createUser(t, db, "bob")
	createUser(t, db, "carol")
	createUser(t, db, "dave")

	event := createTestEvent(t, es, "organizer", false, []string{"bob", "carol", "dave"})

	_, err := es.Rsvp(event.ID, "bob", models.AttendeeStatusGoing)
	require.NoError(t, err)
	_, err = es.Rsvp(event.ID, "carol", models.AttendeeStatusDeclined)
	require.NoError(t, err)

	_, err = is.GetInvitationStats(event.ID, "bob")
	requireKind(t, err, utils.KindForbidden)

	stats, err := is.GetInvitationStats(event.ID, "organizer")
	require.NoError(t, err)

	// organizer going, bob going, carol declined, dave still invited
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByStatus["going"].Count)
	assert.Equal(t, 1, stats.ByStatus["declined"].Count)
	assert.Equal(t, 1, stats.ByStatus["invited"].Count)
	assert.Equal(t, 0, stats.ByStatus["maybe"].Count)

	sum := 0
	for _, bucket := range stats.ByStatus {
		sum += bucket.Count
	}
	assert.Equal(t, stats.Total, sum)

	// 3 of 4 rows are responses: round(75) = 75
	assert.Equal(t, 75, stats.ResponseRate)

	// respondedAt mirrors row creation time.
	goingUsers := stats.ByStatus["going"].Users
	require.Len(t, goingUsers, 2)
	assert.False(t, goingUsers[0].RespondedAt.IsZero())
}

func TestInvitationStatsEmptyEvent(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")
	createUser(t, db, "bob")

	event := createTestEvent(t, es, "organizer", false, []string{"bob"})

	// Strip all attendee rows to hit the zero-total guard.
	require.NoError(t, db.Where("event_id = ?", event.ID).Delete(&models.Attendee{}).Error)

	stats, err := is.GetInvitationStats(event.ID, "organizer")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.ResponseRate)
}

func TestExportAttendees(t *testing.T) {
	is, es, db := newInvitationService(t)
	createUser(t, db, "organizer")

	// A company with a comma forces CSV quoting.
	company := "Smith, Jones & Co"
	bob := models.User{
		ID:        "bob",
		FirstName: "Bob",
		LastName:  "Smith",
		Email:     "bob@example.com",
		Password:  "$2a$10$dummy",
		Company:   &company,
	}
	require.NoError(t, db.Create(&bob).Error)

	event, err := es.CreateEvent("organizer", CreateEventInput{
		Title:       "Q3 Founders' Meetup: Berlin",
		Description: "d",
		Type:        "networking",
		Date:        es.clock.Now().Add(72 * time.Hour),
		IsPublic:    false,
		InviteeIDs:  []string{"bob"},
	})
	require.NoError(t, err)

	_, err = is.ExportAttendees(event.ID, "bob")
	requireKind(t, err, utils.KindForbidden)

	export, err := is.ExportAttendees(event.ID, "organizer")
	require.NoError(t, err)

	assert.Equal(t, "Q3_Founders_Meetup_Berlin_attendees.csv", export.SuggestedFilename)

	reader := csv.NewReader(strings.NewReader(export.Content))
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, []string{"Name", "Email", "Company", "Position", "Location", "Status", "Role"}, records[0])

	// going (organizer) sorts before invited (bob)
	assert.Equal(t, "going", records[1][5])
	assert.Equal(t, "organizer", records[1][6])
	assert.Equal(t, "invited", records[2][5])
	assert.Equal(t, "Smith, Jones & Co", records[2][2])

	// The raw content keeps the comma-bearing field quoted.
	assert.Contains(t, export.Content, `"Smith, Jones & Co"`)
}
