package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes order events to a Kafka topic through a buffered
// inbox. Publishing never blocks the checkout path: when the inbox is full
// the event is dropped and counted, which is acceptable for an advisory
// notification channel.
type KafkaPublisher struct {
	w     *kafka.Writer
	inbox chan kafka.Message
	done  chan struct{}
	lg    *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
// Call Start before publishing and Close during shutdown to flush the inbox.
func NewKafkaPublisher(brokers []string, topic string, buf int, lg *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
		lg:    lg,
	}
}

// Start launches the delivery goroutine. It drains the inbox until ctx is
// cancelled, then flushes whatever is left before closing the writer.
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-ctx.Done():
				p.flush()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaPublisher) flush() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				p.lg.Warn("close kafka writer", zap.Error(err))
			}
			return
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.lg.Warn("publish order event",
			zap.String("key", string(m.Key)),
			zap.Error(err),
		)
	}
}

// PublishOrderCommitted enqueues the event, keyed by order ID so all events
// for one order stay on one partition.
func (p *KafkaPublisher) PublishOrderCommitted(_ context.Context, ev OrderCommitted) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	select {
	case p.inbox <- kafka.Message{Key: []byte(ev.OrderID), Value: value, Time: time.Now()}:
		return nil
	default:
		return errors.New("event inbox full, dropping order event")
	}
}

// WaitClosed blocks until the delivery goroutine has flushed and exited.
func (p *KafkaPublisher) WaitClosed() {
	<-p.done
}
