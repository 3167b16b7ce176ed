package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/platform/logger"
	"github.com/yungbote/agora-backend/internal/realtime"
)

type EventsHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewEventsHandler(log *logger.Logger, hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{
		log: log.With("handler", "EventsHandler"),
		hub: hub,
	}
}

// Stream attaches an SSE subscriber to one debate's channel for the lifetime
// of the request.
func (h *EventsHandler) Stream(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	sub, unsubscribe := h.hub.Subscribe(id)
	defer unsubscribe()

	h.log.Debug("SSE stream opened", "debate_id", id, "subscriber_id", sub.ID)
	h.hub.ServeHTTP(c.Writer, c.Request, sub)
}

// Stats exposes live subscriber counts for one debate.
func (h *EventsHandler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	RespondOK(c, gin.H{"debate_id": id, "subscribers": h.hub.SubscriberCount(id)})
}
