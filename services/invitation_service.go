package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"regexp"
	"time"

	"gorm.io/gorm"

	"connectsphere-api/models"
	"connectsphere-api/utils"
)

type InvitationService struct {
	db           *gorm.DB
	emailService *EmailService
}

func NewInvitationService(db *gorm.DB, emailService *EmailService) *InvitationService {
	return &InvitationService{db: db, emailService: emailService}
}

type AddInviteesResult struct {
	Invited           int      `json:"invited"`
	SkippedUserIDs    []string `json:"skipped_user_ids,omitempty"`
	AllAlreadyInvited bool     `json:"all_already_invited"`
}

type AttendeeSummary struct {
	models.UserSummary
	Status      models.AttendeeStatus `json:"status"`
	Role        models.AttendeeRole   `json:"role"`
	RespondedAt time.Time             `json:"responded_at"`
}

type StatusBucket struct {
	Count int               `json:"count"`
	Users []AttendeeSummary `json:"users"`
}

type InvitationStats struct {
	Total        int                     `json:"total"`
	ResponseRate int                     `json:"response_rate"`
	ByStatus     map[string]StatusBucket `json:"by_status"`
}

type AttendeeExport struct {
	Content           string `json:"content"`
	SuggestedFilename string `json:"suggested_filename"`
}

// AddInvitees adds users to a private event's invite list. Users that
// already hold an attendee row are skipped, not errored, so a bulk
// invite can partially succeed.
func (is *InvitationService) AddInvitees(eventID, organizerID string, userIDs []string) (*AddInviteesResult, error) {
	if len(userIDs) == 0 {
		return nil, utils.InvalidArgument("Invitee list cannot be empty")
	}

	event, err := is.loadOrganizedEvent(eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if event.IsPublic {
		return nil, utils.InvalidState("Invitations only apply to private events")
	}

	var existing []models.Attendee
	if err := is.db.Where("event_id = ? AND user_id IN ?", eventID, userIDs).Find(&existing).Error; err != nil {
		return nil, err
	}

	already := make(map[string]bool, len(existing))
	for _, attendee := range existing {
		already[attendee.UserID] = true
	}

	result := &AddInviteesResult{}
	var newInviteeIDs []string
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		if already[userID] {
			result.SkippedUserIDs = append(result.SkippedUserIDs, userID)
			continue
		}
		newInviteeIDs = append(newInviteeIDs, userID)
	}

	if len(newInviteeIDs) == 0 {
		result.AllAlreadyInvited = true
		return result, nil
	}

	err = is.db.Transaction(func(tx *gorm.DB) error {
		for _, userID := range newInviteeIDs {
			attendee := models.Attendee{
				EventID: eventID,
				UserID:  userID,
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

	result.Invited = len(newInviteeIDs)

	if is.emailService != nil {
		var invitees []models.User
		if err := is.db.Where("id IN ?", newInviteeIDs).Find(&invitees).Error; err == nil {
			var organizer models.User
			if err := is.db.First(&organizer, "id = ?", organizerID).Error; err == nil {
				go is.emailService.SendInvitationEmails(event, organizer.FullName(), invitees)
			}
		}
	}

	return result, nil
}

// GetInvitationStats buckets all attendee rows by status in one pass and
// derives the response rate. respondedAt mirrors the row creation time;
// no per-response timestamp is tracked.
func (is *InvitationService) GetInvitationStats(eventID, requestingUserID string) (*InvitationStats, error) {
	if _, err := is.loadOrganizedEvent(eventID, requestingUserID); err != nil {
		return nil, err
	}

	var attendees []models.Attendee
	if err := is.db.Preload("User").Where("event_id = ?", eventID).Find(&attendees).Error; err != nil {
		return nil, err
	}

	stats := &InvitationStats{
		ByStatus: map[string]StatusBucket{
			string(models.AttendeeStatusInvited):  {Users: []AttendeeSummary{}},
			string(models.AttendeeStatusGoing):    {Users: []AttendeeSummary{}},
			string(models.AttendeeStatusMaybe):    {Users: []AttendeeSummary{}},
			string(models.AttendeeStatusDeclined): {Users: []AttendeeSummary{}},
		},
	}

	for i := range attendees {
		attendee := &attendees[i]
		bucket := stats.ByStatus[string(attendee.Status)]
		bucket.Count++
		bucket.Users = append(bucket.Users, AttendeeSummary{
			UserSummary: attendee.User.Summary(),
			Status:      attendee.Status,
			Role:        attendee.Role,
			RespondedAt: attendee.CreatedAt,
		})
		stats.ByStatus[string(attendee.Status)] = bucket
		stats.Total++
	}

	if stats.Total > 0 {
		invited := stats.ByStatus[string(models.AttendeeStatusInvited)].Count
		stats.ResponseRate = int(math.Round(100 * float64(stats.Total-invited) / float64(stats.Total)))
	}

	return stats, nil
}

var exportStatusOrder = []models.AttendeeStatus{
	models.AttendeeStatusGoing,
	models.AttendeeStatusMaybe,
	models.AttendeeStatusInvited,
	models.AttendeeStatusDeclined,
}

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// ExportAttendees produces the roster as CSV, ordered by status. The
// consumer delivers it as a file download.
func (is *InvitationService) ExportAttendees(eventID, requestingUserID string) (*AttendeeExport, error) {
	event, err := is.loadOrganizedEvent(eventID, requestingUserID)
	if err != nil {
		return nil, err
	}

	var attendees []models.Attendee
	if err := is.db.Preload("User").Where("event_id = ?", eventID).Find(&attendees).Error; err != nil {
		return nil, err
	}

	byStatus := make(map[models.AttendeeStatus][]models.Attendee)
	for _, attendee := range attendees {
		byStatus[attendee.Status] = append(byStatus[attendee.Status], attendee)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"Name", "Email", "Company", "Position", "Location", "Status", "Role"}); err != nil {
		return nil, err
	}

	for _, status := range exportStatusOrder {
		for _, attendee := range byStatus[status] {
			record := []string{
				attendee.User.FullName(),
				attendee.User.Email,
				stringOrEmpty(attendee.User.Company),
				stringOrEmpty(attendee.User.Position),
				stringOrEmpty(attendee.User.City),
				string(attendee.Status),
				string(attendee.Role),
			}
			if err := writer.Write(record); err != nil {
				return nil, err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	filename := filenameSanitizer.ReplaceAllString(event.Title, "_") + "_attendees.csv"

	return &AttendeeExport{
		Content:           buf.String(),
		SuggestedFilename: filename,
	}, nil
}

func (is *InvitationService) loadOrganizedEvent(eventID, userID string) (*models.Event, error) {
	var event models.Event
	if err := is.db.First(&event, "id = ?", eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("Event not found")
		}
		return nil, err
	}
	if event.CreatorID != userID {
		return nil, utils.Forbidden("Only the organizer can perform this operation")
	}
	return &event, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
