package event

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher records events in the service log. It is the default notifier
// when no Kafka brokers are configured, and keeps single-node deployments
// free of extra infrastructure.
type LogPublisher struct {
	lg *zap.Logger
}

func NewLogPublisher(lg *zap.Logger) *LogPublisher {
	return &LogPublisher{lg: lg}
}

func (p *LogPublisher) PublishOrderCommitted(_ context.Context, ev OrderCommitted) error {
	p.lg.Info("order committed",
		zap.String("order_id", ev.OrderID),
		zap.String("email", ev.Email),
		zap.String("total", ev.Total),
		zap.Int("items", ev.ItemCount),
	)
	return nil
}
