package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Login(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
	if err := c.ShouldBind(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if data.Email == "" || data.Password == "" {
		badRequest(c, "Email and password are required")
		return
	}

	token, user, err := a.Deps.Auth.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"user":      user,
		"requestID": requestID,
	})
}
