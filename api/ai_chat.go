package api

import (
	"net/http"

	"mindmate/mood-api/internal/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const chatPersona = "You are MindMate, a compassionate emotional support assistant. " +
	"Respond kindly and keep answers short and supportive."

type chatBody struct {
	Messages []chat.Message `json:"messages"`
}

// Chat forwards the conversation to the completion backend with the
// MindMate persona prepended.
func (a *API) Chat(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data chatBody
	if err := c.ShouldBind(&data); err != nil || len(data.Messages) == 0 {
		badRequest(c, "Invalid messages format")
		return
	}

	messages := append([]chat.Message{{Role: "system", Content: chatPersona}}, data.Messages...)

	reply, err := a.Deps.Chat.Complete(c.Request.Context(), messages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":   "Failed to get AI response",
			"requestID": requestID,
		})

		zap.L().Error("Chat completion failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":     reply,
		"requestID": requestID,
	})
}
