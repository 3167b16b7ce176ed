package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/platform/logger"
)

const defaultSubscriberBuffer = 32

// Subscriber receives one debate's events over a buffered channel. A subscriber
// that falls behind loses events; callers resynchronize from persisted state.
type Subscriber struct {
	ID       uuid.UUID
	DebateID uuid.UUID
	Outbound chan Event

	closeOnce sync.Once
}

// closeOutbound is the single owner of the channel close. Both unsubscribe
// and CloseChannel funnel through it, so either side may run first.
func (s *Subscriber) closeOutbound() {
	s.closeOnce.Do(func() { close(s.Outbound) })
}

// Hub is the per-debate publish/subscribe fan-out. Broadcast never blocks:
// a full subscriber buffer drops the event with a warning.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[uuid.UUID]map[*Subscriber]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:           log.With("component", "RealtimeHub"),
		subscriptions: make(map[uuid.UUID]map[*Subscriber]bool),
	}
}

// Subscribe registers a listener for one debate and returns it along with its
// unsubscribe func. Unsubscribe is idempotent and closes the outbound channel.
func (h *Hub) Subscribe(debateID uuid.UUID) (*Subscriber, func()) {
	sub := &Subscriber{
		ID:       uuid.New(),
		DebateID: debateID,
		Outbound: make(chan Event, defaultSubscriberBuffer),
	}

	h.mu.Lock()
	subs, ok := h.subscriptions[debateID]
	if !ok {
		subs = make(map[*Subscriber]bool)
		h.subscriptions[debateID] = subs
	}
	subs[sub] = true
	h.mu.Unlock()

	h.log.Debug("Subscriber attached", "debate_id", debateID, "subscriber_id", sub.ID)

	unsubscribe := func() {
		h.detach(sub)
		sub.closeOutbound()
	}
	return sub, unsubscribe
}

func (h *Hub) detach(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscriptions[sub.DebateID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscriptions, sub.DebateID)
		}
	}
}

// Broadcast fans the event out to the debate's subscribers. Best effort only:
// delivery failures are swallowed, never surfaced to the round loop.
func (h *Hub) Broadcast(ev Event) {
	if ev.DebateID == uuid.Nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	subs, ok := h.subscriptions[ev.DebateID]
	if !ok {
		return
	}
	for sub := range subs {
		select {
		case sub.Outbound <- ev:
		default:
			h.log.Warn("Dropping event; subscriber buffer full",
				"debate_id", ev.DebateID,
				"subscriber_id", sub.ID,
				"event", ev.Type,
			)
		}
	}
}

// CloseChannel detaches every subscriber of a finished debate and closes their
// outbound channels. Used by the teardown scheduled after the terminal event.
func (h *Hub) CloseChannel(debateID uuid.UUID) {
	h.mu.Lock()
	subs := h.subscriptions[debateID]
	delete(h.subscriptions, debateID)
	h.mu.Unlock()

	for sub := range subs {
		sub.closeOutbound()
	}
	if len(subs) > 0 {
		h.log.Debug("Debate channel closed", "debate_id", debateID, "subscribers", len(subs))
	}
}

// SubscriberCount is used by tests and the stats endpoint.
func (h *Hub) SubscriberCount(debateID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[debateID])
}

// ServeHTTP streams one subscriber's events as text/event-stream until the
// client goes away or the debate channel is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, sub *Subscriber) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("SSE client context done", "subscriber_id", sub.ID, "err", ctx.Err())
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-sub.Outbound:
			if !open {
				return
			}
			raw, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("Failed to marshal event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", ev.Type)
			fmt.Fprintf(w, "data: %s\n\n", raw)
			flusher.Flush()
		}
	}
}
