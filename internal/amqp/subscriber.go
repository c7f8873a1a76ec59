package amqp

import (
	"context"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// Publisher is the part of Client used to forward change events.
type Publisher interface {
	PublishChange(ctx context.Context, msg *ChangeMessage) error
}

// Subscriber returns a store subscriber that forwards every change event
// to p. Publish failures are logged and never reach the caller.
func Subscriber(p Publisher, logger *applog.Logger) core.Subscriber {
	logger = applog.OrNop(logger).WithComponent(applog.ComponentAMQP)
	return func(ev core.ChangeEvent) {
		msg := NewChangeMessage(ev)
		if err := p.PublishChange(context.Background(), msg); err != nil {
			logger.Warn("Failed to publish change event",
				applog.NewFields().
					WithOperation(applog.OpPublish).
					WithCategory(ev.Category).
					WithErrorType(applog.ErrorTypeNetwork).
					WithError(err).
					ToSlice()...)
		}
	}
}
