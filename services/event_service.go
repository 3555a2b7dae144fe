package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"connectsphere-api/models"
	"connectsphere-api/utils"
)

type EventService struct {
	db           *gorm.DB
	clock        Clock
	emailService *EmailService
}

func NewEventService(db *gorm.DB, clock Clock, emailService *EmailService) *EventService {
	return &EventService{db: db, clock: clock, emailService: emailService}
}

type CreateEventInput struct {
	Title          string
	Description    string
	Type           string
	Location       *string
	IsVirtual      bool
	VirtualLink    *string
	Date           time.Time
	EndDate        *time.Time
	IsRecurring    bool
	RecurrenceType *string
	ChapterID      *string
	IsPublic       bool
	EntryFee       *float64
	InviteeIDs     []string
}

type EventFilters struct {
	Search    string
	Type      string
	ChapterID string
	From      *time.Time
	To        *time.Time
}

// EventView decorates an event with the caller-specific flags attached
// on single-event reads.
type EventView struct {
	models.Event
	UserRsvpStatus *models.AttendeeStatus `json:"user_rsvp_status,omitempty"`
	IsOrganizer    bool                   `json:"is_organizer"`
	AttendeeCount  int64                  `json:"attendee_count"`
}

// rsvpTransitions is the full transition table. Declined is terminal.
var rsvpTransitions = map[models.AttendeeStatus][]models.AttendeeStatus{
	models.AttendeeStatusInvited:  {models.AttendeeStatusGoing, models.AttendeeStatusMaybe, models.AttendeeStatusDeclined},
	models.AttendeeStatusGoing:    {models.AttendeeStatusMaybe, models.AttendeeStatusDeclined},
	models.AttendeeStatusMaybe:    {models.AttendeeStatusGoing, models.AttendeeStatusDeclined},
	models.AttendeeStatusDeclined: {},
}

func canTransition(from, to models.AttendeeStatus) bool {
	for _, allowed := range rsvpTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (es *EventService) CreateEvent(creatorID string, input CreateEventInput) (*models.Event, error) {
	now := es.clock.Now()
	if !input.Date.After(now) {
		return nil, utils.InvalidArgument("Event date must be in the future")
	}
	if input.EndDate != nil && input.EndDate.Before(input.Date) {
		return nil, utils.InvalidArgument("Event end date cannot be before the start date")
	}
	if !input.IsPublic && len(input.InviteeIDs) == 0 {
		return nil, utils.InvalidArgument("A private event requires at least one invitee")
	}

	event := models.Event{
		ID:             uuid.New().String(),
		Title:          input.Title,
		Description:    input.Description,
		Type:           input.Type,
		Location:       input.Location,
		IsVirtual:      input.IsVirtual,
		VirtualLink:    input.VirtualLink,
		Date:           input.Date,
		EndDate:        input.EndDate,
		IsRecurring:    input.IsRecurring,
		RecurrenceType: input.RecurrenceType,
		ChapterID:      input.ChapterID,
		CreatorID:      creatorID,
		IsPublic:       input.IsPublic,
		EntryFee:       input.EntryFee,
	}

	// Event row, the organizer attendee row and any invitee rows commit
	// as one unit. A created event without its organizer attendee is a
	// correctness bug, not a degraded state.
	err := es.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		organizer := models.Attendee{
			EventID: event.ID,
			UserID:  creatorID,
			Status:  models.AttendeeStatusGoing,
			Role:    models.AttendeeRoleOrganizer,
		}
		if err := tx.Create(&organizer).Error; err != nil {
			return err
		}

		for _, inviteeID := range input.InviteeIDs {
			if inviteeID == creatorID {
				continue
			}
			attendee := models.Attendee{
				EventID: event.ID,
				UserID:  inviteeID,
				Status:  models.AttendeeStatusInvited,
				Role:    models.AttendeeRoleAttendee,
			}
			if err := tx.Create(&attendee).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if es.emailService != nil && len(input.InviteeIDs) > 0 {
		es.notifyInvitees(&event, input.InviteeIDs)
	}

	return &event, nil
}

// visibleTo restricts an event query to what the viewer may see:
// public events, events they created, and events they hold an attendee
// row for. Anonymous viewers collapse to public only. The predicate
// runs in SQL so pagination stays correct.
func visibleTo(viewerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == "" {
			return db.Where("events.is_public = ?", true)
		}
		return db.Where(
			"events.is_public = ? OR events.creator_id = ? OR EXISTS (SELECT 1 FROM attendees WHERE attendees.event_id = events.id AND attendees.user_id = ?)",
			true, viewerID, viewerID,
		)
	}
}

func (es *EventService) applyFilters(query *gorm.DB, filters EventFilters) *gorm.DB {
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.ChapterID != "" {
		query = query.Where("chapter_id = ?", filters.ChapterID)
	}
	if filters.From != nil {
		query = query.Where("date >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("date <= ?", *filters.To)
	}
	return query
}

func (es *EventService) GetEvents(viewerID string, filters EventFilters, page, limit int) ([]models.Event, int64, error) {
	var total int64
	countQuery := es.applyFilters(es.db.Model(&models.Event{}).Scopes(visibleTo(viewerID)), filters)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.Event
	listQuery := es.applyFilters(es.db.Scopes(visibleTo(viewerID)), filters)
	if err := listQuery.Preload("Creator").Preload("Chapter").
		Order("date ASC").Offset((page - 1) * limit).Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (es *EventService) GetUpcomingEvents(viewerID string, limit int) ([]models.Event, error) {
	now := es.clock.Now()
	var events []models.Event
	if err := es.db.Scopes(visibleTo(viewerID)).
		Where("date > ?", now).
		Preload("Creator").Preload("Chapter").
		Order("date ASC").Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (es *EventService) GetEventsByChapter(viewerID, chapterID string, page, limit int) ([]models.Event, int64, error) {
	var chapter models.Chapter
	if err := es.db.First(&chapter, "id = ?", chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, utils.NotFound("Chapter not found")
		}
		return nil, 0, err
	}
	return es.GetEvents(viewerID, EventFilters{ChapterID: chapterID}, page, limit)
}

func (es *EventService) GetEvent(eventID, viewerID string) (*EventView, error) {
	var event models.Event
	err := es.db.Scopes(visibleTo(viewerID)).
		Preload("Creator").Preload("Chapter").
		First(&event, "events.id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Invisible and missing events are indistinguishable on purpose.
			return nil, utils.NotFound("Event not found")
		}
		return nil, err
	}

	view := &EventView{Event: event}

	if err := es.db.Model(&models.Attendee{}).
		Where("event_id = ? AND status IN ?", eventID,
			[]models.AttendeeStatus{models.AttendeeStatusGoing, models.AttendeeStatusMaybe}).
		Count(&view.AttendeeCount).Error; err != nil {
		return nil, err
	}

	if viewerID != "" {
		view.IsOrganizer = event.CreatorID == viewerID
		var attendee models.Attendee
		if err := es.db.Where("event_id = ? AND user_id = ?", eventID, viewerID).First(&attendee).Error; err == nil {
			view.UserRsvpStatus = &attendee.Status
			if attendee.Role == models.AttendeeRoleOrganizer {
				view.IsOrganizer = true
			}
		}
	}

	return view, nil
}

type UpdateEventInput struct {
	Title       string
	Description string
	Type        string
	Location    *string
	IsVirtual   bool
	VirtualLink *string
	Date        time.Time
	EndDate     *time.Time
	EntryFee    *float64
}

func (es *EventService) UpdateEvent(eventID, actingUserID string, input UpdateEventInput) (*models.Event, error) {
	event, err := es.loadOwnedEvent(eventID, actingUserID)
	if err != nil {
		return nil, err
	}

	if !input.Date.After(es.clock.Now()) {
		return nil, utils.InvalidArgument("Event date must be in the future")
	}
	if input.EndDate != nil && input.EndDate.Before(input.Date) {
		return nil, utils.InvalidArgument("Event end date cannot be before the start date")
	}

	updates := map[string]interface{}{
		"title":        input.Title,
		"description":  input.Description,
		"type":         input.Type,
		"location":     input.Location,
		"is_virtual":   input.IsVirtual,
		"virtual_link": input.VirtualLink,
		"date":         input.Date,
		"end_date":     input.EndDate,
		"entry_fee":    input.EntryFee,
	}

	if err := es.db.Model(event).Updates(updates).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (es *EventService) DeleteEvent(eventID, actingUserID string) error {
	event, err := es.loadOwnedEvent(eventID, actingUserID)
	if err != nil {
		return err
	}

	return es.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Attendee{}).Error; err != nil {
			return err
		}
		return tx.Delete(event).Error
	})
}

// Rsvp applies an attendee status transition, creating the attendee row
// on a first-time response to a public event.
func (es *EventService) Rsvp(eventID, userID string, newStatus models.AttendeeStatus) (*models.Attendee, error) {
	switch newStatus {
	case models.AttendeeStatusGoing, models.AttendeeStatusMaybe, models.AttendeeStatusDeclined:
	default:
		return nil, utils.InvalidArgument("Invalid RSVP status: %s", newStatus)
	}

	var event models.Event
	if err := es.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("Event not found")
		}
		return nil, err
	}

	var attendee models.Attendee
	err := es.db.Where("event_id = ? AND user_id = ?", eventID, userID).First(&attendee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Self-registration is only open on public events. A private
		// event stays indistinguishable from a missing one for anyone
		// without an attendee row; the invite list is the organizer's.
		if !event.IsPublic && event.CreatorID != userID {
			return nil, utils.NotFound("Event not found")
		}
		attendee = models.Attendee{
			EventID: eventID,
			UserID:  userID,
			Status:  newStatus,
			Role:    models.AttendeeRoleAttendee,
		}
		if err := es.db.Create(&attendee).Error; err != nil {
			if isDuplicateKeyError(err) {
				// Lost a first-RSVP race; the row now exists with the
				// winner's status.
				return nil, utils.Conflict("RSVP already recorded, re-query current status")
			}
			return nil, err
		}
		return &attendee, nil
	}
	if err != nil {
		return nil, err
	}

	if !canTransition(attendee.Status, newStatus) {
		return nil, utils.InvalidState("Cannot change RSVP from %s to %s", attendee.Status, newStatus).
			WithDetails(map[string]interface{}{
				"current_status":   attendee.Status,
				"allowed_statuses": rsvpTransitions[attendee.Status],
			})
	}

	// Compare-and-swap on the status read above so two concurrent RSVPs
	// from the same user serialize instead of double-applying.
	result := es.db.Model(&models.Attendee{}).
		Where("id = ? AND status = ?", attendee.ID, attendee.Status).
		Update("status", newStatus)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.Conflict("RSVP changed concurrently, re-query current status")
	}

	attendee.Status = newStatus
	return &attendee, nil
}

func (es *EventService) loadOwnedEvent(eventID, actingUserID string) (*models.Event, error) {
	var event models.Event
	if err := es.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("Event not found")
		}
		return nil, err
	}
	if event.CreatorID != actingUserID {
		return nil, utils.Forbidden("Only the organizer can modify this event")
	}
	return &event, nil
}

func (es *EventService) notifyInvitees(event *models.Event, inviteeIDs []string) {
	var invitees []models.User
	if err := es.db.Where("id IN ?", inviteeIDs).Find(&invitees).Error; err != nil {
		return
	}

	var creator models.User
	if err := es.db.First(&creator, "id = ?", event.CreatorID).Error; err != nil {
		return
	}

	// Mail failures are logged inside the email service and never fail
	// the request.
	go es.emailService.SendInvitationEmails(event, creator.FullName(), invitees)
}
