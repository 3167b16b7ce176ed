package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/agora-backend/internal/handlers"
)

type RouterConfig struct {
	AllowOrigins  []string
	DebateHandler *handlers.DebateHandler
	EventsHandler *handlers.EventsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

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

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/debates", cfg.DebateHandler.Create)
		api.GET("/debates", cfg.DebateHandler.List)
		api.GET("/debates/:id", cfg.DebateHandler.Get)
		api.GET("/debates/:id/messages", cfg.DebateHandler.Messages)
		api.POST("/debates/:id/start", cfg.DebateHandler.Start)
		api.POST("/debates/:id/stop", cfg.DebateHandler.Stop)
		api.GET("/debates/:id/events", cfg.EventsHandler.Stream)
		api.GET("/debates/:id/events/stats", cfg.EventsHandler.Stats)
		api.POST("/debates/:id/votes", cfg.DebateHandler.CastVote)
		api.GET("/debates/:id/votes/aggregate", cfg.DebateHandler.VoteAggregate)
		api.GET("/debates/:id/result", cfg.DebateHandler.Result)
		api.GET("/debates/:id/analysis", cfg.DebateHandler.Analysis)
	}

	return router
}
