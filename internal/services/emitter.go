package services

import (
	"context"

	"github.com/yungbote/habitflow-backend/internal/sse"
)

// Emitter decouples event producers from the delivery path: in a single
// process events go straight to the hub, across instances they go
// through the Redis bus.
type Emitter interface {
	Emit(ctx context.Context, msg sse.Message)
}

type HubEmitter struct{ Hub *sse.Hub }

func (e *HubEmitter) Emit(ctx context.Context, msg sse.Message) {
	e.Hub.Broadcast(msg)
}

type BusEmitter struct{ Bus EventBus }

func (e *BusEmitter) Emit(ctx context.Context, msg sse.Message) {
	_ = e.Bus.Publish(ctx, msg)
}
