package api

import (
	"errors"
	"net/http"

	"mindmate/mood-api/internal/auth"
	"mindmate/mood-api/internal/mail"
	"mindmate/mood-api/internal/oauth"
	"mindmate/mood-api/internal/otp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail maps a service error to the HTTP taxonomy and writes the JSON
// body. Raw store errors never reach the client, only the log.
func fail(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, otp.ErrInvalidCode):
		status, message = http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, otp.ErrExpired):
		status, message = http.StatusBadRequest, "OTP expired"
	case errors.Is(err, otp.ErrEmailMissing), errors.Is(err, otp.ErrBadPurpose):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUserExists):
		status, message = http.StatusConflict, "User already exists"
	case errors.Is(err, auth.ErrUserNotFound):
		status, message = http.StatusNotFound, "User not found"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, message = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrNoVerifiedEmail):
		status, message = http.StatusBadRequest, "Your GitHub account has no verified email address"
	case errors.Is(err, mail.ErrNotConfigured):
		// Operator-fixable, surfaced verbatim on purpose
		status, message = http.StatusInternalServerError, err.Error()
	case errors.Is(err, mail.ErrAuth), errors.Is(err, mail.ErrConnection):
		status, message = http.StatusInternalServerError, "Failed to send OTP. Please try again."
	case errors.Is(err, oauth.ErrNotConfigured):
		status, message = http.StatusInternalServerError, "GitHub OAuth configuration error"
	case errors.Is(err, oauth.ErrExchange):
		status, message = http.StatusBadRequest, "Failed to get access token"
	case errors.Is(err, oauth.ErrProfile):
		status, message = http.StatusInternalServerError, "GitHub login failed"
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(status, gin.H{
		"message":   message,
		"requestID": requestID,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message":   message,
		"requestID": c.GetString("requestID"),
	})
}
