package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/n-spicher/shipwright/internal/app"
	"github.com/n-spicher/shipwright/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type AskRequest struct {
	Message    string `json:"message" binding:"required"`
	DocumentID string `json:"document_id"`
	Mode       string `json:"mode"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.Ask(c.Request.Context(), app.AskInput{
		UserID:     userID,
		DocumentID: req.DocumentID,
		Question:   req.Message,
		Mode:       app.ChatMode(req.Mode),
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		case errors.Is(err, app.ErrLLMUnavailable):
			response.Error(c, http.StatusBadGateway, response.CodeLLMUnavailable, err.Error())
		case errors.Is(err, app.ErrVectorStoreUnavailable):
			response.Error(c, http.StatusServiceUnavailable, response.CodeVectorUnavailable, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *ChatHandler) Modes(c *gin.Context) {
	response.OK(c, app.ChatModes())
}
