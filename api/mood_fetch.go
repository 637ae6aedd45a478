package api

import (
	"net/http"

	"mindmate/mood-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MoodFetch returns the caller's mood history, newest first.
func (a *API) MoodFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var moods []model.Mood

	err := a.Deps.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&moods).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch moods", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"moods":     moods,
		"requestID": requestID,
	})
}
