package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"connectsphere-api/models"
)

type ChapterController struct {
	db *gorm.DB
}

func NewChapterController(db *gorm.DB) *ChapterController {
	return &ChapterController{db: db}
}

func (cc *ChapterController) GetChapters(c *gin.Context) {
	var chapters []models.Chapter
	if err := cc.db.Order("name ASC").Find(&chapters).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chapters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chapters": chapters})
}

func (cc *ChapterController) GetChapter(c *gin.Context) {
	chapterID := c.Param("id")

	var chapter models.Chapter
	if err := cc.db.First(&chapter, "id = ?", chapterID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chapter not found"})
		return
	}

	c.JSON(http.StatusOK, chapter)
}
