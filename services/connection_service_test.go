package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"connectsphere-api/models"
	"connectsphere-api/utils"
)

func newConnectionService(t *testing.T) (*ConnectionService, *gorm.DB) {
	db := setupTestDB(t)
	return NewConnectionService(db, newFakeClock()), db
}

func requireKind(t *testing.T, err error, kind utils.ErrorKind) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok, "expected *utils.AppError, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind)
	return appErr
}

func TestSendRequestToSelf(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")

	_, err := cs.SendRequest("alice", "alice", nil)
	requireKind(t, err, utils.KindInvalidArgument)
}

func TestSendRequestToMissingUser(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")

	_, err := cs.SendRequest("alice", "ghost", nil)
	requireKind(t, err, utils.KindNotFound)
}

func TestSendRequestPairUniqueness(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	_, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)

	// Same direction
	_, err = cs.SendRequest("alice", "bob", nil)
	requireKind(t, err, utils.KindConflict)

	// Opposite direction hits the same pending pair
	_, err = cs.SendRequest("bob", "alice", nil)
	requireKind(t, err, utils.KindConflict)

	var count int64
	require.NoError(t, db.Model(&models.Connection{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSendRequestRaceHitsUniqueIndex(t *testing.T) {
	_, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	// Simulate a row slipping in between the existence check and the
	// insert: inserting the pair directly, then going through the service
	// path that believes the pair is free.
	pairLow, pairHigh := models.NormalizePair("alice", "bob")
	require.NoError(t, db.Create(&models.Connection{
		RequesterID:  "bob",
		AddresseeID:  "alice",
		Status:       models.ConnectionStatusPending,
		LastActionBy: "bob",
		PairLow:      pairLow,
		PairHigh:     pairHigh,
	}).Error)

	err := db.Create(&models.Connection{
		RequesterID:  "alice",
		AddresseeID:  "bob",
		Status:       models.ConnectionStatusPending,
		LastActionBy: "alice",
		PairLow:      pairLow,
		PairHigh:     pairHigh,
	}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKeyError(err))
}

func TestSendRequestWhenAlreadyConnected(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	conn, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)
	_, err = cs.AcceptRequest(conn.ID, "bob")
	require.NoError(t, err)

	_, err = cs.SendRequest("bob", "alice", nil)
	appErr := requireKind(t, err, utils.KindConflict)
	assert.Contains(t, appErr.Message, "Already connected")
}

func TestSendRequestBlockedPair(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	pairLow, pairHigh := models.NormalizePair("alice", "bob")
	require.NoError(t, db.Create(&models.Connection{
		RequesterID:  "bob",
		AddresseeID:  "alice",
		Status:       models.ConnectionStatusBlocked,
		LastActionBy: "bob",
		PairLow:      pairLow,
		PairHigh:     pairHigh,
	}).Error)

	_, err := cs.SendRequest("alice", "bob", nil)
	requireKind(t, err, utils.KindForbidden)
}

func TestAcceptByRequesterForbidden(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	conn, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)

	_, err = cs.AcceptRequest(conn.ID, "alice")
	requireKind(t, err, utils.KindForbidden)

	_, err = cs.DeclineRequest(conn.ID, "alice")
	requireKind(t, err, utils.KindForbidden)
}

func TestAcceptThenDeclineLifecycle(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	message := "let's connect"
	conn, err := cs.SendRequest("alice", "bob", &message)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusPending, conn.Status)
	assert.Equal(t, "alice", conn.LastActionBy)

	accepted, err := cs.AcceptRequest(conn.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	assert.Equal(t, "bob", accepted.LastActionBy)

	// Accept and decline are one-way: no route back to pending.
	_, err = cs.DeclineRequest(conn.ID, "bob")
	requireKind(t, err, utils.KindInvalidState)
	_, err = cs.AcceptRequest(conn.ID, "bob")
	requireKind(t, err, utils.KindInvalidState)
}

func TestDeclineRequest(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	conn, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)

	declined, err := cs.DeclineRequest(conn.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusDeclined, declined.Status)
	assert.Nil(t, declined.AcceptedAt)
}

func TestSendRequestAfterDeclineReusesRow(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	conn, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)
	_, err = cs.DeclineRequest(conn.ID, "bob")
	require.NoError(t, err)

	// Bob can ask Alice afterwards; the pair still has a single row, now
	// pending in the opposite direction.
	fresh, err := cs.SendRequest("bob", "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, fresh.ID)
	assert.Equal(t, models.ConnectionStatusPending, fresh.Status)
	assert.Equal(t, "bob", fresh.RequesterID)
	assert.Equal(t, "alice", fresh.AddresseeID)

	var count int64
	require.NoError(t, db.Model(&models.Connection{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRespondToMissingConnection(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")

	_, err := cs.AcceptRequest(999, "alice")
	requireKind(t, err, utils.KindNotFound)
}

func TestRemoveConnection(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")
	createUser(t, db, "carol")

	conn, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)
	_, err = cs.AcceptRequest(conn.ID, "bob")
	require.NoError(t, err)

	err = cs.RemoveConnection(conn.ID, "carol")
	requireKind(t, err, utils.KindForbidden)

	require.NoError(t, cs.RemoveConnection(conn.ID, "alice"))

	var count int64
	require.NoError(t, db.Model(&models.Connection{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	err = cs.RemoveConnection(conn.ID, "alice")
	requireKind(t, err, utils.KindNotFound)

	// Removal frees the pair for a fresh request.
	_, err = cs.SendRequest("bob", "alice", nil)
	require.NoError(t, err)
}

func TestGetConnectionStatus(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	status, err := cs.GetConnectionStatus("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "none", status.Status)

	conn, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)

	status, err = cs.GetConnectionStatus("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "pending", status.Status)
	assert.True(t, status.IsSentByMe)

	status, err = cs.GetConnectionStatus("bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "pending", status.Status)
	assert.False(t, status.IsSentByMe)

	_, err = cs.AcceptRequest(conn.ID, "bob")
	require.NoError(t, err)

	status, err = cs.GetConnectionStatus("bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, "accepted", status.Status)
}

func TestConnectionProjectionsResolveOtherParty(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")
	createUser(t, db, "carol")

	connBob, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)
	_, err = cs.AcceptRequest(connBob.ID, "bob")
	require.NoError(t, err)

	_, err = cs.SendRequest("carol", "alice", nil)
	require.NoError(t, err)

	connections, total, err := cs.GetConnections("alice", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, connections, 1)
	assert.Equal(t, "bob", connections[0].User.ID)

	pending, err := cs.GetPendingRequests("alice", 1, 20)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "carol", pending[0].User.ID)

	sent, err := cs.GetSentRequests("carol", 1, 20)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "alice", sent[0].User.ID)
}

func TestGetStats(t *testing.T) {
	cs, db := newConnectionService(t)
	createUser(t, db, "alice")
	createUser(t, db, "bob")
	createUser(t, db, "carol")
	createUser(t, db, "dave")

	conn, err := cs.SendRequest("alice", "bob", nil)
	require.NoError(t, err)
	_, err = cs.AcceptRequest(conn.ID, "bob")
	require.NoError(t, err)

	_, err = cs.SendRequest("carol", "alice", nil)
	require.NoError(t, err)
	_, err = cs.SendRequest("alice", "dave", nil)
	require.NoError(t, err)

	stats, err := cs.GetStats("alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Connections)
	assert.Equal(t, int64(1), stats.PendingReceived)
	assert.Equal(t, int64(1), stats.PendingSent)
}
