package events

import (
	"context"

	"go.uber.org/zap"
)

// Event names published by the payment engine.
const (
	EventOrderPaid       = "order.paid"
	EventPaymentFailed   = "payment.failed"
	EventPaymentRefunded = "payment.refunded"
	EventEscrowReleased  = "escrow.released"
)

// Emitter publishes domain events for downstream consumers (notification,
// shipping). Emission is fire-and-forget and strictly post-commit: failures
// are logged and must never affect the already-committed payment state.
type Emitter interface {
	Emit(ctx context.Context, event string, payload map[string]any)
}

// NoopEmitter is used when no broker is configured.
type NoopEmitter struct {
	log *zap.Logger
}

func NewNoopEmitter(log *zap.Logger) *NoopEmitter {
	return &NoopEmitter{log: log.With(zap.String("emitter", "noop"))}
}

func (e *NoopEmitter) Emit(ctx context.Context, event string, payload map[string]any) {
	e.log.Debug("Event dropped (no broker configured)", zap.String("event", event))
}
