package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// envelope is the wire format: a typed header around the event payload so
// consumers can route without parsing the body.
type envelope struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// KafkaPublisher writes domain events to the inventory events topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger logger.ZapLogger
}

func NewKafkaPublisher(brokers []string, topic string, log logger.ZapLogger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		logger: log,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evts ...Event) error {
	msgs := make([]kafka.Message, 0, len(evts))
	for _, e := range evts {
		value, err := json.Marshal(envelope{
			EventID:   uuid.New().String(),
			EventType: e.EventType(),
			Timestamp: e.OccurredAt(),
			Payload:   e,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.EventType()),
			Value: value,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("failed to publish events", zap.Int("count", len(msgs)), zap.Error(err))
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
