package handlers

import (
	"net/http"

	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/utils"
	"tripmate/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService services.ChatService
	logger      *logger.Logger
}

func NewChatHandler(chatService services.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      log,
	}
}

// GetChatHistory returns the most recent messages of a trip, oldest first
func (h *ChatHandler) GetChatHistory(c *gin.Context) {
	limit := utils.GetLimitParam(c, utils.DefaultChatHistoryLimit, utils.MaxChatHistoryLimit)

	messages, err := h.chatService.GetHistory(c.Request.Context(), c.Param("trip_id"), limit)
	if err != nil {
		status, _, _ := utils.ErrorCode(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithContext(c.Request.Context()).WithError(err).Error("Failed to get chat history")
		}
		utils.AbortWithError(c, err)
		return
	}
	if messages == nil {
		messages = []*models.ChatMessage{}
	}

	c.JSON(http.StatusOK, messages)
}
