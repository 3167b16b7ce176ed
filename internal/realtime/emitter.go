package realtime

import (
	"context"
)

// Emitter decouples the engine from how events reach subscribers. The hub
// emitter serves single-instance deployments; the bus emitter publishes to
// redis so every instance's hub can forward to its own clients.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

type HubEmitter struct{ Hub *Hub }

func (e *HubEmitter) Emit(ctx context.Context, ev Event) {
	e.Hub.Broadcast(ev)
}
