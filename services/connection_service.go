package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"connectsphere-api/models"
	"connectsphere-api/utils"
)

type ConnectionService struct {
	db    *gorm.DB
	clock Clock
}

func NewConnectionService(db *gorm.DB, clock Clock) *ConnectionService {
	return &ConnectionService{db: db, clock: clock}
}

// ConnectionView is a connection projected against the viewer: the user
// field always holds the party that is not the caller.
type ConnectionView struct {
	ID             uint                    `json:"id"`
	Status         models.ConnectionStatus `json:"status"`
	RequestMessage *string                 `json:"request_message,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	AcceptedAt     *time.Time              `json:"accepted_at,omitempty"`
	User           models.UserSummary      `json:"user"`
}

type ConnectionStats struct {
	Connections     int64 `json:"connections"`
	PendingReceived int64 `json:"pending_received"`
	PendingSent     int64 `json:"pending_sent"`
}

type ConnectionStatusView struct {
	Status       string `json:"status"`
	IsSentByMe   bool   `json:"is_sent_by_me,omitempty"`
	ConnectionID uint   `json:"connection_id,omitempty"`
}

func (cs *ConnectionService) SendRequest(requesterID, addresseeID string, message *string) (*models.Connection, error) {
	if requesterID == addresseeID {
		return nil, utils.InvalidArgument("Cannot send a connection request to yourself")
	}

	var addressee models.User
	if err := cs.db.First(&addressee, "id = ?", addresseeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("User not found")
		}
		return nil, err
	}

	pairLow, pairHigh := models.NormalizePair(requesterID, addresseeID)

	var existing models.Connection
	err := cs.db.Where("pair_low = ? AND pair_high = ?", pairLow, pairHigh).First(&existing).Error
	if err == nil {
		switch existing.Status {
		case models.ConnectionStatusBlocked:
			return nil, utils.Forbidden("Cannot send a connection request to this user")
		case models.ConnectionStatusAccepted:
			return nil, utils.Conflict("Already connected with this user")
		case models.ConnectionStatusPending:
			return nil, utils.Conflict("A connection request is already pending")
		case models.ConnectionStatusDeclined:
			// A declined pair may be asked again. The single row per pair
			// is reused as a fresh pending request in the new direction.
			existing.RequesterID = requesterID
			existing.AddresseeID = addresseeID
			existing.Status = models.ConnectionStatusPending
			existing.RequestMessage = message
			existing.LastActionBy = requesterID
			existing.AcceptedAt = nil
			if err := cs.db.Save(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	connection := models.Connection{
		RequesterID:    requesterID,
		AddresseeID:    addresseeID,
		Status:         models.ConnectionStatusPending,
		RequestMessage: message,
		LastActionBy:   requesterID,
		PairLow:        pairLow,
		PairHigh:       pairHigh,
	}

	if err := cs.db.Create(&connection).Error; err != nil {
		// The pair unique index closes the check-then-insert window when
		// two requests for the same pair race.
		if isDuplicateKeyError(err) {
			return nil, utils.Conflict("A connection request is already pending")
		}
		return nil, err
	}

	return &connection, nil
}

func (cs *ConnectionService) AcceptRequest(connectionID uint, actingUserID string) (*models.Connection, error) {
	return cs.respond(connectionID, actingUserID, models.ConnectionStatusAccepted)
}

func (cs *ConnectionService) DeclineRequest(connectionID uint, actingUserID string) (*models.Connection, error) {
	return cs.respond(connectionID, actingUserID, models.ConnectionStatusDeclined)
}

func (cs *ConnectionService) respond(connectionID uint, actingUserID string, newStatus models.ConnectionStatus) (*models.Connection, error) {
	var connection models.Connection
	if err := cs.db.First(&connection, "id = ?", connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("Connection request not found")
		}
		return nil, err
	}

	// Only the receiving party may respond.
	if connection.AddresseeID != actingUserID {
		return nil, utils.Forbidden("Only the addressee can respond to this request")
	}

	if connection.Status != models.ConnectionStatusPending {
		return nil, utils.InvalidState("Request is not pending").WithDetails(map[string]interface{}{
			"current_status": connection.Status,
		})
	}

	connection.Status = newStatus
	connection.LastActionBy = actingUserID
	if newStatus == models.ConnectionStatusAccepted {
		now := cs.clock.Now()
		connection.AcceptedAt = &now
	}
	if err := cs.db.Save(&connection).Error; err != nil {
		return nil, err
	}

	return &connection, nil
}

func (cs *ConnectionService) RemoveConnection(connectionID uint, actingUserID string) error {
	var connection models.Connection
	if err := cs.db.First(&connection, "id = ?", connectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("Connection not found")
		}
		return err
	}

	if !connection.IsParty(actingUserID) {
		return utils.Forbidden("Not a party to this connection")
	}

	// Hard delete: removed connections leave no trace.
	return cs.db.Delete(&connection).Error
}

func (cs *ConnectionService) GetConnections(userID string, page, limit int) ([]ConnectionView, int64, error) {
	var total int64
	if err := cs.db.Model(&models.Connection{}).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.ConnectionStatusAccepted).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var connections []models.Connection
	if err := cs.db.
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.ConnectionStatusAccepted).
		Preload("Requester").Preload("Addressee").
		Order("accepted_at DESC").Offset((page - 1) * limit).Limit(limit).
		Find(&connections).Error; err != nil {
		return nil, 0, err
	}

	return cs.project(connections, userID), total, nil
}

func (cs *ConnectionService) GetPendingRequests(userID string, page, limit int) ([]ConnectionView, error) {
	var connections []models.Connection
	if err := cs.db.Preload("Requester").
		Where("addressee_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).
		Find(&connections).Error; err != nil {
		return nil, err
	}

	return cs.project(connections, userID), nil
}

func (cs *ConnectionService) GetSentRequests(userID string, page, limit int) ([]ConnectionView, error) {
	var connections []models.Connection
	if err := cs.db.Preload("Addressee").
		Where("requester_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).
		Find(&connections).Error; err != nil {
		return nil, err
	}

	return cs.project(connections, userID), nil
}

func (cs *ConnectionService) GetStats(userID string) (*ConnectionStats, error) {
	stats := &ConnectionStats{}

	if err := cs.db.Model(&models.Connection{}).
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, models.ConnectionStatusAccepted).
		Count(&stats.Connections).Error; err != nil {
		return nil, err
	}

	if err := cs.db.Model(&models.Connection{}).
		Where("addressee_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Count(&stats.PendingReceived).Error; err != nil {
		return nil, err
	}

	if err := cs.db.Model(&models.Connection{}).
		Where("requester_id = ? AND status = ?", userID, models.ConnectionStatusPending).
		Count(&stats.PendingSent).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// GetConnectionStatus resolves the relationship between the viewer and
// another user. Profile and event views reuse this to decide which
// affordance to show.
func (cs *ConnectionService) GetConnectionStatus(viewerID, otherUserID string) (*ConnectionStatusView, error) {
	if viewerID == otherUserID {
		return &ConnectionStatusView{Status: "none"}, nil
	}

	pairLow, pairHigh := models.NormalizePair(viewerID, otherUserID)

	var connection models.Connection
	err := cs.db.Where("pair_low = ? AND pair_high = ?", pairLow, pairHigh).First(&connection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ConnectionStatusView{Status: "none"}, nil
		}
		return nil, err
	}

	view := &ConnectionStatusView{
		Status:       string(connection.Status),
		ConnectionID: connection.ID,
	}
	if connection.Status == models.ConnectionStatusPending {
		view.IsSentByMe = connection.RequesterID == viewerID
	}
	return view, nil
}

func (cs *ConnectionService) project(connections []models.Connection, viewerID string) []ConnectionView {
	views := make([]ConnectionView, 0, len(connections))
	for i := range connections {
		conn := &connections[i]
		other := conn.Requester
		if conn.RequesterID == viewerID {
			other = conn.Addressee
		}
		views = append(views, ConnectionView{
			ID:             conn.ID,
			Status:         conn.Status,
			RequestMessage: conn.RequestMessage,
			CreatedAt:      conn.CreatedAt,
			AcceptedAt:     conn.AcceptedAt,
			User:           other.Summary(),
		})
	}
	return views
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// MySQL 1062 / SQLite "UNIQUE constraint failed" surface as plain
	// errors through the drivers.
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
