package models

import "time"

// Chapter is a local group events can be attached to. Only name/city are
// consumed by the event views.
type Chapter struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	City      string    `json:"city" gorm:"not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Events []Event `json:"events,omitempty" gorm:"foreignKey:ChapterID"`
}
