package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"connectsphere-api/models"
	"connectsphere-api/services"
	"connectsphere-api/utils"
)

type UserController struct {
	db                *gorm.DB
	connectionService *services.ConnectionService
}

func NewUserController(db *gorm.DB, connectionService *services.ConnectionService) *UserController {
	return &UserController{db: db, connectionService: connectionService}
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var user models.User
	if err := uc.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Password = ""
	c.JSON(http.StatusOK, user)
}

// GetUser returns another user's summary plus the viewer's relationship
// to them, so the client can show the right affordance.
func (uc *UserController) GetUser(c *gin.Context) {
	viewerID := c.GetString("user_id")
	targetID := c.Param("user_id")

	var user models.User
	if err := uc.db.First(&user, "id = ?", targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	status, err := uc.connectionService.GetConnectionStatus(viewerID, targetID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":              user.Summary(),
		"connection_status": status,
	})
}

func (uc *UserController) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query required"})
		return
	}
	page, limit := pagination(c)

	pattern := "%" + query + "%"
	var users []models.User
	if err := uc.db.
		Where("first_name LIKE ? OR last_name LIKE ? OR company LIKE ?", pattern, pattern, pattern).
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}

	c.JSON(http.StatusOK, gin.H{"users": summaries})
}
