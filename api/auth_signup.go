package api

import (
	"net/http"

	"mindmate/mood-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type signupBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Signup starts the two-phase registration. No account row is written
// here, only an OTP goes out.
func (a *API) Signup(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data signupBody
	if err := c.ShouldBind(&data); err != nil {
		badRequest(c, "Invalid request body")

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := a.Deps.Auth.RequestSignup(c.Request.Context(), data.Email); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":                 "OTP sent to your email. Please verify to complete registration.",
		"requiresOtpVerification": true,
		"requestID":               requestID,
	})
}

type completeSignupBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Otp      string `json:"otp"`
}

// CompleteSignup verifies the OTP, creates the account and hands back a
// session token.
func (a *API) CompleteSignup(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data completeSignupBody
	if err := c.ShouldBind(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if data.Otp == "" {
		badRequest(c, "Email, password, and OTP are required")
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		badRequest(c, err.Error())
		return
	}

	token, user, err := a.Deps.Auth.CompleteSignup(c.Request.Context(), data.Email, data.Password, data.Name, data.Otp)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "User registered successfully!",
		"token":     token,
		"user":      user,
		"requestID": requestID,
	})
}
