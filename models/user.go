package models

import "time"

type User struct {
	ID            string    `json:"id" gorm:"primaryKey;size:191"`
	FirstName     string    `json:"first_name" gorm:"not null;size:100"`
	LastName      string    `json:"last_name" gorm:"not null;size:100"`
	Email         string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password      string    `json:"-" gorm:"not null;size:255"`
	Company       *string   `json:"company" gorm:"size:255"`
	Position      *string   `json:"position" gorm:"size:255"`
	City          *string   `json:"city" gorm:"size:100"`
	Avatar        *string   `json:"avatar" gorm:"size:500"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	CreatedEvents []Event `json:"created_events,omitempty" gorm:"foreignKey:CreatorID"`
}

// UserSummary is the projection exposed wherever another user appears in
// a connection or attendee payload.
type UserSummary struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Company   *string `json:"company"`
	Position  *string `json:"position"`
	City      *string `json:"city"`
	Avatar    *string `json:"avatar"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Company:   u.Company,
		Position:  u.Position,
		City:      u.City,
		Avatar:    u.Avatar,
	}
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
