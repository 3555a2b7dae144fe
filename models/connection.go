package models

import "time"

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusDeclined ConnectionStatus = "declined"
	// ConnectionStatusBlocked is checked on the request path but no route
	// sets it yet.
	ConnectionStatusBlocked ConnectionStatus = "blocked"
)

type Connection struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	RequesterID    string           `json:"requester_id" gorm:"not null;size:191"`
	AddresseeID    string           `json:"addressee_id" gorm:"not null;size:191"`
	Status         ConnectionStatus `json:"status" gorm:"not null;default:'pending';size:20"`
	RequestMessage *string          `json:"request_message" gorm:"size:500"`
	LastActionBy   string           `json:"last_action_by" gorm:"not null;size:191"`
	// PairLow/PairHigh hold the user pair in sorted order so a unique
	// index can reject a second row for the same pair in either direction.
	PairLow    string     `json:"-" gorm:"not null;size:191;uniqueIndex:uk_connections_pair"`
	PairHigh   string     `json:"-" gorm:"not null;size:191;uniqueIndex:uk_connections_pair"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	AcceptedAt *time.Time `json:"accepted_at"`

	Requester User `json:"requester" gorm:"foreignKey:RequesterID"`
	Addressee User `json:"addressee" gorm:"foreignKey:AddresseeID"`
}

// NormalizePair returns the two user IDs in sorted order.
func NormalizePair(a, b string) (string, string) {
	if a > b {
		a, b = b, a
	}
	return a, b
}

// OtherParty resolves the end of the connection that is not the viewer.
func (conn *Connection) OtherParty(viewerID string) string {
	if conn.RequesterID == viewerID {
		return conn.AddresseeID
	}
	return conn.RequesterID
}

// IsParty reports whether the user is either end of the connection.
func (conn *Connection) IsParty(userID string) bool {
	return conn.RequesterID == userID || conn.AddresseeID == userID
}
