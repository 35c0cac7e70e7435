package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"intervals/backend/internal/handler"
	"intervals/backend/internal/middleware"
	"intervals/backend/internal/service"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Presets *handler.PresetHandler
	History *handler.SessionHandler
	Timer   *handler.TimerHandler
}

func New(
	authService *service.AuthService,
	handlers Handlers,
	corsOrigins []string,
	logger *slog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLogger(logger), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", handlers.Auth.Register)
	auth.POST("/login", handlers.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))

	presets := protected.Group("/presets")
	presets.GET("", handlers.Presets.List)
	presets.POST("", handlers.Presets.Create)
	presets.GET("/:id", handlers.Presets.Get)
	presets.DELETE("/:id", handlers.Presets.Delete)

	sessions := protected.Group("/sessions")
	sessions.GET("", handlers.History.List)
	sessions.DELETE("/:id", handlers.History.Delete)

	timer := protected.Group("/timer")
	timer.GET("", handlers.Timer.GetState)
	timer.DELETE("", handlers.Timer.Discard)
	timer.GET("/events", handlers.Timer.Events)
	timer.POST("/start", handlers.Timer.Start)
	timer.POST("/pause", handlers.Timer.Pause)
	timer.POST("/resume", handlers.Timer.Resume)
	timer.POST("/reset", handlers.Timer.Reset)
	timer.POST("/skip", handlers.Timer.Skip)
	timer.POST("/rest", handlers.Timer.StartRest)
	timer.POST("/save", handlers.Timer.Save)

	return engine
}
