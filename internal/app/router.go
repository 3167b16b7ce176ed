package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/agora-backend/internal/server"
)

func wireRouter(cfg Config, handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AllowOrigins:  cfg.AllowOrigins,
		DebateHandler: handlerset.Debate,
		EventsHandler: handlerset.Events,
	})
}
