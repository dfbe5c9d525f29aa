package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	appsvc "avatar-chat/internal/app"
	"avatar-chat/internal/bootstrap"
	"avatar-chat/internal/repository"
	"avatar-chat/internal/transport/http/handler"
	"avatar-chat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	historyRepo := repository.NewHistoryRepository(app.DB)

	// optional collaborators stay nil interfaces when disabled
	var lastResponses appsvc.LastResponseCache
	if app.LastResponses != nil {
		lastResponses = app.LastResponses
	}
	var publisher appsvc.TurnPublisher
	if app.TurnPublisher != nil {
		publisher = app.TurnPublisher
	}

	authService := appsvc.NewAuthService(userRepo, app.Config.Auth.BcryptCost, app.Config.Auth.RedirectURL)
	chatService := appsvc.NewChatService(
		userRepo,
		historyRepo,
		app.Generator,
		app.Synthesizer,
		app.AudioStore,
		appsvc.AudioOptions{
			Filename:    app.Config.Audio.Filename,
			URLPrefix:   app.Config.Audio.URLPrefix,
			UniqueNames: app.Config.Audio.UniqueNames,
		},
		lastResponses,
		publisher,
	)
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)

	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)
	router.POST("/chat", chatHandler.Chat)
	router.GET("/audio/:filename", chatHandler.Audio)

	return router
}

// NewHandler is the router behind an allow-all CORS policy, ready to hand to
// an http.Server.
func NewHandler(app *bootstrap.App) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})(NewRouter(app))
}
