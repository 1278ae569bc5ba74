package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

// ChatHandler serves the planning assistant.
type ChatHandler struct {
	chat      *services.ChatService
	ollamaURL string
	llmModel  string
}

// NewChatHandler returns a handler over chat. ollamaURL and llmModel only feed error messages.
func NewChatHandler(chat *services.ChatService, ollamaURL, llmModel string) *ChatHandler {
	return &ChatHandler{chat: chat, ollamaURL: ollamaURL, llmModel: llmModel}
}

// Ask answers a question about the latest forecast.
// POST /api/v1/ask {"query": "...", "context_snapshot": {...}}
func (h *ChatHandler) Ask(c *gin.Context) {
	var q models.ChatQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), q)
	if err != nil {
		log.Printf("[assistant] request %s: %v", requestID(c), err)
		if errors.Is(err, services.ErrAssistantUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success":    false,
				"error":      "Ollama is unreachable at " + h.ollamaURL + ". Start Ollama and make sure model '" + h.llmModel + "' is available (example: `ollama serve` and `ollama pull " + h.llmModel + "`).",
				"detail":     err.Error(),
				"request_id": requestID(c),
			})
			return
		}
		respondEngineError(c, err)
		return
	}

	answer.RequestID = requestID(c)
	c.JSON(http.StatusOK, answer)
}
