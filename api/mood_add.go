package api

import (
	"net/http"

	"mindmate/mood-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type moodAddBody struct {
	Mood string `json:"mood"`
	Note string `json:"note"`
}

func (a *API) MoodAdd(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data moodAddBody
	if err := c.ShouldBind(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if data.Mood == "" {
		badRequest(c, "Mood is required")
		return
	}

	entry := model.Mood{
		UserID: userID,
		Mood:   data.Mood,
		Note:   data.Note,
	}

	if err := a.Deps.DB.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create mood entry", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Mood entry added successfully",
		"mood":      entry,
		"requestID": requestID,
	})
}
