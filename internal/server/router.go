package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/habitflow-backend/internal/handlers"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/middleware"
	"github.com/yungbote/habitflow-backend/internal/services"
)

type RouterConfig struct {
	Log                *logger.Logger
	AuthService        services.AuthService
	AuthHandler        *handlers.AuthHandler
	UserHandler        *handlers.UserHandler
	HabitHandler       *handlers.HabitHandler
	AchievementHandler *handlers.AchievementHandler
	RealtimeHandler    *handlers.RealtimeHandler
	AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("habitflow-backend"))

	// Cors
	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/auth/register", cfg.AuthHandler.Register)
	router.POST("/api/auth/login", cfg.AuthHandler.Login)
	router.POST("/api/auth/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(middleware.RequireAuth(cfg.Log, cfg.AuthService))
	// Auth
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.GET("/user/leaderboard", cfg.UserHandler.GetLeaderboard)
	// Habits
	protected.POST("/habits", cfg.HabitHandler.Create)
	protected.GET("/habits", cfg.HabitHandler.List)
	protected.GET("/habits/:id", cfg.HabitHandler.Get)
	protected.PUT("/habits/:id", cfg.HabitHandler.Update)
	protected.DELETE("/habits/:id", cfg.HabitHandler.Delete)
	protected.POST("/habits/:id/log", cfg.HabitHandler.Log)
	protected.GET("/habits/:id/streak", cfg.HabitHandler.GetStreak)
	protected.GET("/habits/:id/stats", cfg.HabitHandler.GetStats)
	// Achievements
	protected.GET("/achievements", cfg.AchievementHandler.ListUnlocked)
	protected.GET("/achievements/available", cfg.AchievementHandler.ListAvailable)
	protected.GET("/achievements/stats", cfg.AchievementHandler.GetStats)
	// Events
	protected.GET("/events/stream", cfg.RealtimeHandler.Stream)
	protected.POST("/events/boards/:id/join", cfg.RealtimeHandler.JoinBoard)
	protected.POST("/events/boards/:id/leave", cfg.RealtimeHandler.LeaveBoard)

	return router
}
