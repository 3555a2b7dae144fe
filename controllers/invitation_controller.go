package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"connectsphere-api/services"
	"connectsphere-api/utils"
)

type InvitationController struct {
	invitationService *services.InvitationService
}

func NewInvitationController(invitationService *services.InvitationService) *InvitationController {
	return &InvitationController{invitationService: invitationService}
}

type AddInviteesRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

func (ic *InvitationController) AddInvitees(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	var req AddInviteesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := ic.invitationService.AddInvitees(eventID, userID, req.UserIDs)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	message := fmt.Sprintf("%d invitation(s) sent", result.Invited)
	if result.AllAlreadyInvited {
		message = "All users were already invited"
	}
	utils.SendSuccess(c, message, result)
}

func (ic *InvitationController) GetInvitationStats(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	stats, err := ic.invitationService.GetInvitationStats(eventID, userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (ic *InvitationController) ExportAttendees(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	export, err := ic.invitationService.ExportAttendees(eventID, userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.SuggestedFilename))
	c.Data(http.StatusOK, "text/csv", []byte(export.Content))
}
