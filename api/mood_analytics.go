package api

import (
	"net/http"
	"strconv"
	"time"

	"mindmate/mood-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type moodCount struct {
	Mood  string `json:"mood"`
	Count int64  `json:"count"`
}

type dayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// MoodAnalytics aggregates the caller's entries over the last N days
// (default 30): totals per mood and entries per day.
func (a *API) MoodAnalytics(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 || days > 365 {
		badRequest(c, "Invalid days parameter")
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	db := a.Deps.DB.WithContext(c.Request.Context())

	var byMood []moodCount

	err = db.Model(&model.Mood{}).
		Select("mood, count(*) as count").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("mood").
		Order("count desc").
		Find(&byMood).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to aggregate moods", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var byDay []dayCount

	err = db.Model(&model.Mood{}).
		Select("date(created_at) as day, count(*) as count").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("date(created_at)").
		Order("day").
		Find(&byDay).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to aggregate moods by day", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var total int64
	for _, m := range byMood {
		total += m.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"days":      days,
		"total":     total,
		"byMood":    byMood,
		"byDay":     byDay,
		"requestID": requestID,
	})
}
