package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/debate"
	"github.com/yungbote/agora-backend/internal/pkg/dbctx"
	"github.com/yungbote/agora-backend/internal/platform/logger"
)

type DebateHandler struct {
	log       *logger.Logger
	service   *debate.Service
	registry  debate.SessionRegistry
	analytics *debate.Analytics
}

func NewDebateHandler(log *logger.Logger, service *debate.Service, registry debate.SessionRegistry, analytics *debate.Analytics) *DebateHandler {
	return &DebateHandler{
		log:       log.With("handler", "DebateHandler"),
		service:   service,
		registry:  registry,
		analytics: analytics,
	}
}

func debateIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *DebateHandler) Create(c *gin.Context) {
	var in debate.CreateDebateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}
	view, err := h.service.CreateDebate(dbctx.New(c.Request.Context()), in)
	if err != nil {
		h.log.Warn("Create debate rejected", "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, view)
}

func (h *DebateHandler) Get(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	view, err := h.service.GetDebate(dbctx.New(c.Request.Context()), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	view.Debate.Status = withLiveStatus(view.Debate.Status, h.registry.IsRunning(id))
	RespondOK(c, view)
}

// withLiveStatus trusts the registry over a stale persisted row.
func withLiveStatus(persisted string, running bool) string {
	if running {
		return "running"
	}
	return persisted
}

func (h *DebateHandler) List(c *gin.Context) {
	debates, err := h.service.ListDebates(dbctx.New(c.Request.Context()), 100)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"debates": debates})
}

func (h *DebateHandler) Messages(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	msgs, err := h.service.Transcript(dbctx.New(c.Request.Context()), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": msgs})
}

func (h *DebateHandler) Start(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	if err := h.registry.Start(c.Request.Context(), id); err != nil {
		h.log.Warn("Start rejected", "debate_id", id, "error", err)
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"debate_id": id, "status": "running"})
}

func (h *DebateHandler) Stop(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	if err := h.registry.Stop(c.Request.Context(), id); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"debate_id": id, "stopped": true})
}

func (h *DebateHandler) CastVote(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	var in debate.CastVoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}
	vote, err := h.service.CastVote(dbctx.New(c.Request.Context()), id, in)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, vote)
}

func (h *DebateHandler) VoteAggregate(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	agg, err := h.analytics.AggregateVotes(dbctx.New(c.Request.Context()), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, agg)
}

func (h *DebateHandler) Result(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	res, err := h.analytics.CalculateWeightedResult(dbctx.New(c.Request.Context()), id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, res)
}

func (h *DebateHandler) Analysis(c *gin.Context) {
	id, ok := debateIDParam(c)
	if !ok {
		return
	}
	dbc := dbctx.New(c.Request.Context())
	divergence, err := h.analytics.AnalyzePerspectiveDivergence(dbc, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	blindSpots, err := h.analytics.AnalyzeBlindSpots(dbc, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"divergence":  divergence,
		"blind_spots": blindSpots.BlindSpots,
	})
}
