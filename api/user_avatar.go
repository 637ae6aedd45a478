package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"mindmate/mood-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// UploadAvatar stores a profile picture and records its public path on the
// user row.
func (a *API) UploadAvatar(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")

	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		// Fall back to the filename when the client didn't set a type
		ext = strings.ToLower(filepath.Ext(fileHeader.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			badRequest(c, "Only JPEG, JPG and PNG files are allowed")
			return
		}
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded file", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	key := fmt.Sprintf("%s-%d%s", userID, time.Now().Unix(), ext)

	url, err := a.Deps.Avatars.Save(c.Request.Context(), key, f, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store avatar", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.Deps.DB.WithContext(c.Request.Context()).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("avatar", url).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update avatar path", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Avatar uploaded successfully",
		"avatar":    url,
		"requestID": requestID,
	})
}
