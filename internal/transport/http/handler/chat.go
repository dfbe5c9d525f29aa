package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"avatar-chat/internal/app"
	"avatar-chat/internal/storage"
	"avatar-chat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	Text  string `json:"text"`
	Email string `json:"email"`
}

// ChatResponse leaves out audio_url when no audio was rendered.
type ChatResponse struct {
	AIResponse string `json:"ai_response"`
	AudioURL   string `json:"audio_url,omitempty"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.MsgChatFieldsRequired)
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), app.ChatInput{
		Text:  req.Text,
		Email: req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.MsgChatFieldsRequired)
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, response.MsgUserNotFound)
		default:
			response.Internal(c, "chat", err)
		}
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		AIResponse: result.Response,
		AudioURL:   result.AudioURL,
	})
}

func (h *ChatHandler) Audio(c *gin.Context) {
	rc, err := h.chatService.OpenAudio(c.Request.Context(), c.Param("filename"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.MsgAudioNotFound)
			return
		}
		response.Internal(c, "open audio", err)
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		response.Internal(c, "read audio", err)
		return
	}
	c.Data(http.StatusOK, "audio/mp3", data)
}
