package realtime

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/agora-backend/internal/platform/logger"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return NewHub(log)
}

func TestBroadcastPreservesOrderPerSubscriber(t *testing.T) {
	h := testHub(t)
	debateID := uuid.New()
	sub, unsubscribe := h.Subscribe(debateID)
	defer unsubscribe()

	types := []EventType{EventDebateStart, EventRoundStart, EventToken, EventRoundEnd, EventDebateEnd}
	for _, tp := range types {
		h.Broadcast(Event{DebateID: debateID, Type: tp})
	}

	for i, want := range types {
		select {
		case got := <-sub.Outbound:
			if got.Type != want {
				t.Fatalf("event %d = %q, want %q", i, got.Type, want)
			}
			if got.At.IsZero() {
				t.Fatal("broadcast did not stamp At")
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestBroadcastIsolatesDebates(t *testing.T) {
	h := testHub(t)
	a, b := uuid.New(), uuid.New()
	subA, unsubA := h.Subscribe(a)
	defer unsubA()
	subB, unsubB := h.Subscribe(b)
	defer unsubB()

	h.Broadcast(Event{DebateID: a, Type: EventDebateStart})

	select {
	case <-subA.Outbound:
	case <-time.After(time.Second):
		t.Fatal("subscriber on debate A received nothing")
	}
	select {
	case ev := <-subB.Outbound:
		t.Fatalf("subscriber on debate B received %q", ev.Type)
	default:
	}
}

func TestBroadcastDropsWhenSubscriberIsFull(t *testing.T) {
	h := testHub(t)
	debateID := uuid.New()
	slow, unsubSlow := h.Subscribe(debateID)
	defer unsubSlow()
	fast, unsubFast := h.Subscribe(debateID)
	defer unsubFast()

	// Overflow the slow subscriber while draining the fast one in lockstep,
	// so the fast buffer never fills and every event reaches it.
	total := defaultSubscriberBuffer + 10
	for i := 0; i < total; i++ {
		h.Broadcast(Event{DebateID: debateID, Type: EventToken})
		select {
		case <-fast.Outbound:
		case <-time.After(time.Second):
			t.Fatalf("fast subscriber missed event %d", i)
		}
	}
	if got := len(slow.Outbound); got != defaultSubscriberBuffer {
		t.Fatalf("slow subscriber buffered %d, want full buffer %d", got, defaultSubscriberBuffer)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := testHub(t)
	debateID := uuid.New()
	_, unsubscribe := h.Subscribe(debateID)

	unsubscribe()
	unsubscribe()

	if n := h.SubscriberCount(debateID); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}
	// Broadcasting to a fully unsubscribed debate is a no-op.
	h.Broadcast(Event{DebateID: debateID, Type: EventToken})
}

func TestCloseChannelDetachesAllSubscribers(t *testing.T) {
	h := testHub(t)
	debateID := uuid.New()
	sub1, _ := h.Subscribe(debateID)
	sub2, _ := h.Subscribe(debateID)

	h.CloseChannel(debateID)

	for i, sub := range []*Subscriber{sub1, sub2} {
		select {
		case _, open := <-sub.Outbound:
			if open {
				t.Fatalf("subscriber %d channel still open", i)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d channel not closed", i)
		}
	}
	if n := h.SubscriberCount(debateID); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}
}

// Teardown and a client disconnect can race: CloseChannel fires after the
// grace delay while the SSE handler's deferred unsubscribe runs on return.
// Whichever side loses must not close the channel a second time.
func TestCloseChannelThenUnsubscribeIsSafe(t *testing.T) {
	h := testHub(t)
	debateID := uuid.New()
	sub, unsubscribe := h.Subscribe(debateID)

	h.CloseChannel(debateID)
	unsubscribe()
	h.CloseChannel(debateID)

	if _, open := <-sub.Outbound; open {
		t.Fatal("channel still open after teardown")
	}
	if n := h.SubscriberCount(debateID); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}
}

func TestServeHTTPWritesSSEFrames(t *testing.T) {
	h := testHub(t)
	debateID := uuid.New()
	sub, unsubscribe := h.Subscribe(debateID)

	h.Broadcast(Event{DebateID: debateID, Type: EventDebateStart, Data: DebateStartData{DebateID: debateID, Topic: "t", MaxRounds: 2}})
	unsubscribe()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/debates/"+debateID.String()+"/events", nil)
	h.ServeHTTP(rec, req, sub)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event: debate_start\n") {
		t.Fatalf("missing event line in %q", body)
	}
	if !strings.Contains(body, "data: {") {
		t.Fatalf("missing data line in %q", body)
	}
}
