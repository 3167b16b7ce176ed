package app

import (
	"github.com/yungbote/agora-backend/internal/handlers"
	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
)

type Handlers struct {
	Debate *handlers.DebateHandler
	Events *handlers.EventsHandler
}

func wireHandlers(log *logger.Logger, services Services, hub *realtime.Hub) Handlers {
	return Handlers{
		Debate: handlers.NewDebateHandler(log, services.Debate, services.Registry, services.Analytics),
		Events: handlers.NewEventsHandler(log, hub),
	}
}
