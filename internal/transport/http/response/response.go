package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgSignupOK           = "Signup successful! Please login."
	MsgLoginOK            = "Login successful!"
	MsgFieldsRequired     = "All fields are required!"
	MsgEmailExists        = "Email already exists!"
	MsgInvalidCredentials = "Invalid credentials!"
	MsgChatFieldsRequired = "Text input and email are required!"
	MsgUserNotFound       = "User not found!"
	MsgAudioNotFound      = "Audio file not found!"
	MsgInternalError      = "internal server error"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

type MessageResponse struct {
	Message string `json:"message"`
}

func Message(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, MessageResponse{Message: message})
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, MessageResponse{Message: message})
}

// Internal logs err against the request id and hides it from the caller.
func Internal(c *gin.Context, op string, err error) {
	slog.ErrorContext(c.Request.Context(), op+" failed",
		"request_id", c.GetString(RequestIDKey),
		"error", err,
	)
	Error(c, http.StatusInternalServerError, MsgInternalError)
}
