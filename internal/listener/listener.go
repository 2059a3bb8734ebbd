// Package listener consumes order events from kafka and turns them into
// consumption transactions.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/txn"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reader is the subset of kafka.Reader the listener uses.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// OrderListener deducts stock for placed orders. Each order item becomes one
// consumption line at the order's location, referenced by the order id so a
// redelivered event is rejected as a duplicate by the reservation path or
// shows up as a second transaction in the log.
type OrderListener struct {
	reader    Reader
	processor txn.Processor
	logger    logger.ZapLogger
}

func NewOrderListener(reader Reader, processor txn.Processor, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		reader:    reader,
		processor: processor,
		logger:    log,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("starting order listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping order listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *OrderListener) Close() error {
	return l.reader.Close()
}

type orderPlacedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   orderPayload `json:"payload"`
}

type orderPayload struct {
	ID         string      `json:"id"`
	LocationID string      `json:"location_id"`
	Items      []orderItem `json:"items"`
}

type orderItem struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event orderPlacedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal order event", zap.Error(err))
		return
	}
	if event.EventType != "OrderPlaced" {
		return
	}

	l.logger.Info("processing order", zap.String("order_id", event.Payload.ID))

	input := &dto.ConsumeInput{
		UserID:    "system",
		Reference: event.Payload.ID,
		Notes:     "order consumption",
	}
	for _, item := range event.Payload.Items {
		input.Lines = append(input.Lines, dto.ConsumeLine{
			ItemID:           item.ItemID,
			SourceLocationID: event.Payload.LocationID,
			Quantity:         item.Quantity,
			ReservationRef:   event.Payload.ID,
		})
	}
	if len(input.Lines) == 0 {
		return
	}

	if _, err := l.processor.Consume(ctx, input); err != nil {
		// Orders without a prior hold still consume; retry without the
		// reservation reference when none is active.
		if errors.Is(err, model.ErrNotFound) {
			for i := range input.Lines {
				input.Lines[i].ReservationRef = ""
			}
			_, err = l.processor.Consume(ctx, input)
		}
		if err != nil {
			l.logger.Error("failed to consume stock for order",
				zap.String("order_id", event.Payload.ID),
				zap.Error(err),
			)
		}
	}
}
