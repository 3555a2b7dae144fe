package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"connectsphere-api/services"
	"connectsphere-api/utils"
)

type ConnectionController struct {
	connectionService *services.ConnectionService
}

func NewConnectionController(connectionService *services.ConnectionService) *ConnectionController {
	return &ConnectionController{connectionService: connectionService}
}

type SendConnectionRequest struct {
	Message *string `json:"message"`
}

func (cc *ConnectionController) SendRequest(c *gin.Context) {
	requesterID := c.GetString("user_id")
	addresseeID := c.Param("user_id")

	var req SendConnectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	connection, err := cc.connectionService.SendRequest(requesterID, addresseeID, req.Message)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendCreated(c, "Connection request sent", connection)
}

func (cc *ConnectionController) AcceptRequest(c *gin.Context) {
	userID := c.GetString("user_id")

	connectionID, err := parseConnectionID(c)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid connection ID")
		return
	}

	connection, err := cc.connectionService.AcceptRequest(connectionID, userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Connection request accepted", connection)
}

func (cc *ConnectionController) DeclineRequest(c *gin.Context) {
	userID := c.GetString("user_id")

	connectionID, err := parseConnectionID(c)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid connection ID")
		return
	}

	connection, err := cc.connectionService.DeclineRequest(connectionID, userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Connection request declined", connection)
}

func (cc *ConnectionController) RemoveConnection(c *gin.Context) {
	userID := c.GetString("user_id")

	connectionID, err := parseConnectionID(c)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid connection ID")
		return
	}

	if err := cc.connectionService.RemoveConnection(connectionID, userID); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Connection removed", nil)
}

func (cc *ConnectionController) GetConnections(c *gin.Context) {
	userID := c.GetString("user_id")
	page, limit := pagination(c)

	connections, total, err := cc.connectionService.GetConnections(userID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendPaginated(c, connections, page, limit, total)
}

func (cc *ConnectionController) GetPendingRequests(c *gin.Context) {
	userID := c.GetString("user_id")
	page, limit := pagination(c)

	requests, err := cc.connectionService.GetPendingRequests(userID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (cc *ConnectionController) GetSentRequests(c *gin.Context) {
	userID := c.GetString("user_id")
	page, limit := pagination(c)

	requests, err := cc.connectionService.GetSentRequests(userID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (cc *ConnectionController) GetStats(c *gin.Context) {
	userID := c.GetString("user_id")

	stats, err := cc.connectionService.GetStats(userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (cc *ConnectionController) GetConnectionStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	otherUserID := c.Param("user_id")

	status, err := cc.connectionService.GetConnectionStatus(userID, otherUserID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func parseConnectionID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return page, limit
}
