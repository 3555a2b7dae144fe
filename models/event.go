package models

import "time"

type AttendeeStatus string

const (
	AttendeeStatusInvited  AttendeeStatus = "invited"
	AttendeeStatusGoing    AttendeeStatus = "going"
	AttendeeStatusMaybe    AttendeeStatus = "maybe"
	AttendeeStatusDeclined AttendeeStatus = "declined"
)

type AttendeeRole string

const (
	AttendeeRoleOrganizer AttendeeRole = "organizer"
	AttendeeRoleAttendee  AttendeeRole = "attendee"
)

type Event struct {
	ID             string     `json:"id" gorm:"primaryKey;size:191"`
	Title          string     `json:"title" gorm:"not null;size:255"`
	Description    string     `json:"description" gorm:"not null;type:text"`
	Type           string     `json:"type" gorm:"not null;size:50"`
	Location       *string    `json:"location" gorm:"size:500"`
	IsVirtual      bool       `json:"is_virtual" gorm:"default:false"`
	VirtualLink    *string    `json:"virtual_link" gorm:"size:500"`
	Date           time.Time  `json:"date" gorm:"not null"`
	EndDate        *time.Time `json:"end_date"`
	IsRecurring    bool       `json:"is_recurring" gorm:"default:false"`
	RecurrenceType *string    `json:"recurrence_type" gorm:"size:50"`
	ChapterID      *string    `json:"chapter_id" gorm:"size:191"`
	CreatorID      string     `json:"creator_id" gorm:"not null;size:191"`
	// No default tag here: gorm drops zero-value fields that carry one,
	// which would silently store private events as public.
	IsPublic  bool      `json:"is_public" gorm:"not null"`
	EntryFee  *float64  `json:"entry_fee"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Creator   User       `json:"creator" gorm:"foreignKey:CreatorID"`
	Chapter   *Chapter   `json:"chapter" gorm:"foreignKey:ChapterID"`
	Attendees []Attendee `json:"attendees" gorm:"foreignKey:EventID"`
}

type Attendee struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	EventID   string         `json:"event_id" gorm:"not null;size:191;uniqueIndex:uk_attendees_event_user"`
	UserID    string         `json:"user_id" gorm:"not null;size:191;uniqueIndex:uk_attendees_event_user"`
	Status    AttendeeStatus `json:"status" gorm:"not null;default:'invited';size:20"`
	Role      AttendeeRole   `json:"role" gorm:"not null;default:'attendee';size:20"`
	CreatedAt time.Time      `json:"created_at"`

	Event Event `json:"event" gorm:"foreignKey:EventID"`
	User  User  `json:"user" gorm:"foreignKey:UserID"`
}
