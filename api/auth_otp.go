package api

import (
	"net/http"

	"mindmate/mood-api/internal/otp"
	"mindmate/mood-api/pkg/validators"

	"github.com/gin-gonic/gin"
)

type otpSendBody struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

// OtpSend issues a fresh code for (email, purpose), invalidating any
// outstanding one. The code only ever travels by mail.
func (a *API) OtpSend(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data otpSendBody
	if err := c.ShouldBind(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		badRequest(c, err.Error())
		return
	}

	if data.Purpose == "" {
		data.Purpose = otp.PurposeSignup
	}

	if err := a.Deps.OTP.Issue(c.Request.Context(), data.Email, data.Purpose); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "OTP sent to email",
		"requestID": requestID,
	})
}

type otpVerifyBody struct {
	Email   string `json:"email"`
	Otp     string `json:"otp"`
	Purpose string `json:"purpose"`
}

func (a *API) OtpVerify(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data otpVerifyBody
	if err := c.ShouldBind(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if data.Email == "" || data.Otp == "" {
		badRequest(c, "Email and OTP are required")
		return
	}

	if data.Purpose == "" {
		data.Purpose = otp.PurposeSignup
	}

	if err := a.Deps.OTP.Verify(c.Request.Context(), data.Email, data.Otp, data.Purpose); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "OTP verified",
		"requestID": requestID,
	})
}
