package middleware

import (
	"errors"
	"net/http"
	"strings"

	"mindmate/mood-api/internal/auth"
	"mindmate/mood-api/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewJWTMiddleware guards protected routes. The mobile client sends the
// session token as "Authorization: Bearer <token>".
func NewJWTMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message":   "Access denied. No token provided.",
				"requestID": requestID,
			})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")

		userID, err := auth.ParseToken(tokenStr, []byte(viper.GetString("jwt.secret")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message":   "Invalid or expired token.",
				"requestID": requestID,
			})
			return
		}

		// The token may outlive the account, reject if the row is gone
		var user model.User
		if err := d.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"message":   "Invalid or expired token.",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message":   "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
