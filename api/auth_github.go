package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type githubLoginBody struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
}

// GithubLogin exchanges a GitHub authorization code for a session token,
// creating the account on first login.
func (a *API) GithubLogin(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data githubLoginBody
	if err := c.ShouldBind(&data); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if data.Code == "" {
		badRequest(c, "Authorization code is required")
		return
	}

	token, user, err := a.Deps.Auth.GithubLogin(c.Request.Context(), data.Code, data.CodeVerifier)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"email":  user.Email,
			"name":   user.Name,
			"avatar": user.Avatar,
		},
		"requestID": requestID,
	})
}
