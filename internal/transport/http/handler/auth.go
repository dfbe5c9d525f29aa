package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"avatar-chat/internal/app"
	"avatar-chat/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.MsgFieldsRequired)
		return
	}

	_, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.MsgFieldsRequired)
		case errors.Is(err, app.ErrEmailExists):
			response.Error(c, http.StatusBadRequest, response.MsgEmailExists)
		default:
			response.Internal(c, "signup", err)
		}
		return
	}

	response.Message(c, http.StatusCreated, response.MsgSignupOK)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusUnauthorized, response.MsgInvalidCredentials)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, response.MsgInvalidCredentials)
		default:
			response.Internal(c, "login", err)
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:     response.MsgLoginOK,
		RedirectURL: result.RedirectURL,
	})
}
