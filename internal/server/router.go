package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/goalie-study/goalie-backend/internal/handlers"
	"github.com/goalie-study/goalie-backend/internal/middleware"
)

type RouterConfig struct {
	ChatHandler           *handlers.ChatHandler
	StudyHandler          *handlers.StudyHandler
	ParticipantMiddleware *middleware.ParticipantMiddleware
	ResearchAuth          *middleware.ResearchAuthMiddleware
	AllowOrigins          []string
	Tracing               bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.Tracing {
		router.Use(otelgin.Middleware("goalie-backend"))
	}

	// Cors
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===================
	// || Participant   ||
	// ===================
	chat := router.Group("/api/chat")
	chat.Use(cfg.ParticipantMiddleware.Resolve())
	chat.GET("/state", cfg.ChatHandler.GetState)
	chat.POST("/event", cfg.ChatHandler.PostEvent)
	chat.GET("/history", cfg.ChatHandler.GetHistory)

	// ===============
	// || Research  ||
	// ===============
	research := router.Group("/api")
	research.Use(cfg.ResearchAuth.RequireAuth())
	research.POST("/update_status", cfg.StudyHandler.UpdateStatus)
	research.GET("/update_status", cfg.StudyHandler.UpdateStatus)
	research.GET("/get_goal_and_tasks", cfg.StudyHandler.GetGoalAndTasks)

	return router
}
