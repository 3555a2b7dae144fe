package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"connectsphere-api/models"
	"connectsphere-api/services"
	"connectsphere-api/utils"
)

type EventController struct {
	eventService *services.EventService
}

func NewEventController(eventService *services.EventService) *EventController {
	return &EventController{eventService: eventService}
}

type CreateEventRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description" binding:"required"`
	Type           string     `json:"type" binding:"required"`
	Location       *string    `json:"location"`
	IsVirtual      bool       `json:"is_virtual"`
	VirtualLink    *string    `json:"virtual_link"`
	Date           time.Time  `json:"date" binding:"required"`
	EndDate        *time.Time `json:"end_date"`
	IsRecurring    bool       `json:"is_recurring"`
	RecurrenceType *string    `json:"recurrence_type"`
	ChapterID      *string    `json:"chapter_id"`
	IsPublic       *bool      `json:"is_public"`
	EntryFee       *float64   `json:"entry_fee"`
	InviteeIDs     []string   `json:"invitee_ids"`
}

type UpdateEventRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description" binding:"required"`
	Type        string     `json:"type" binding:"required"`
	Location    *string    `json:"location"`
	IsVirtual   bool       `json:"is_virtual"`
	VirtualLink *string    `json:"virtual_link"`
	Date        time.Time  `json:"date" binding:"required"`
	EndDate     *time.Time `json:"end_date"`
	EntryFee    *float64   `json:"entry_fee"`
}

type RsvpRequest struct {
	Status string `json:"status" binding:"required"`
}

func (ec *EventController) CreateEvent(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	event, err := ec.eventService.CreateEvent(userID, services.CreateEventInput{
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		Location:       req.Location,
		IsVirtual:      req.IsVirtual,
		VirtualLink:    req.VirtualLink,
		Date:           req.Date,
		EndDate:        req.EndDate,
		IsRecurring:    req.IsRecurring,
		RecurrenceType: req.RecurrenceType,
		ChapterID:      req.ChapterID,
		IsPublic:       isPublic,
		EntryFee:       req.EntryFee,
		InviteeIDs:     req.InviteeIDs,
	})
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (ec *EventController) GetEvents(c *gin.Context) {
	viewerID := c.GetString("user_id")
	page, limit := pagination(c)

	filters := services.EventFilters{
		Search:    c.Query("search"),
		Type:      c.Query("type"),
		ChapterID: c.Query("chapter_id"),
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.To = &t
		}
	}

	events, total, err := ec.eventService.GetEvents(viewerID, filters, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendPaginated(c, events, page, limit, total)
}

func (ec *EventController) GetUpcomingEvents(c *gin.Context) {
	viewerID := c.GetString("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	events, err := ec.eventService.GetUpcomingEvents(viewerID, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (ec *EventController) GetEventsByChapter(c *gin.Context) {
	viewerID := c.GetString("user_id")
	chapterID := c.Param("chapter_id")
	page, limit := pagination(c)

	events, total, err := ec.eventService.GetEventsByChapter(viewerID, chapterID, page, limit)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendPaginated(c, events, page, limit, total)
}

func (ec *EventController) GetEvent(c *gin.Context) {
	viewerID := c.GetString("user_id")
	eventID := c.Param("id")

	event, err := ec.eventService.GetEvent(eventID, viewerID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (ec *EventController) UpdateEvent(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	event, err := ec.eventService.UpdateEvent(eventID, userID, services.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Location:    req.Location,
		IsVirtual:   req.IsVirtual,
		VirtualLink: req.VirtualLink,
		Date:        req.Date,
		EndDate:     req.EndDate,
		EntryFee:    req.EntryFee,
	})
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Event updated", event)
}

func (ec *EventController) DeleteEvent(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	if err := ec.eventService.DeleteEvent(eventID, userID); err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Event deleted", nil)
}

func (ec *EventController) Rsvp(c *gin.Context) {
	userID := c.GetString("user_id")
	eventID := c.Param("id")

	var req RsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	attendee, err := ec.eventService.Rsvp(eventID, userID, models.AttendeeStatus(req.Status))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "RSVP recorded", attendee)
}
