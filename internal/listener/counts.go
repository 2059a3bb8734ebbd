package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kitchenops/inventory-service/internal/countsheet"
	"github.com/kitchenops/inventory-service/internal/countsheet/dto"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CountListener ingests physical counts submitted by the stores. One event
// carries a full count of a location; the listener runs the sheet through
// create, record and complete, leaving it for a manager to approve. Variance
// adjustments only happen at approval, so a bad submission costs nothing.
type CountListener struct {
	reader Reader
	sheets countsheet.UseCase
	logger logger.ZapLogger
}

func NewCountListener(reader Reader, sheets countsheet.UseCase, log logger.ZapLogger) *CountListener {
	return &CountListener{
		reader: reader,
		sheets: sheets,
		logger: log,
	}
}

func (l *CountListener) Start(ctx context.Context) {
	l.logger.Info("starting count listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping count listener")
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

func (l *CountListener) Close() error {
	return l.reader.Close()
}

type countSubmittedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   countPayload `json:"payload"`
}

type countPayload struct {
	LocationID string      `json:"location_id"`
	CountedBy  string      `json:"counted_by"`
	Items      []countItem `json:"items"`
}

type countItem struct {
	ItemID          string          `json:"item_id"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
}

func (l *CountListener) processMessage(ctx context.Context, value []byte) {
	var event countSubmittedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal count event", zap.Error(err))
		return
	}
	if event.EventType != "StockCountSubmitted" {
		return
	}
	if len(event.Payload.Items) == 0 {
		return
	}

	l.logger.Info("processing submitted count",
		zap.String("location_id", event.Payload.LocationID),
		zap.Int("items", len(event.Payload.Items)),
	)

	itemIDs := make([]string, 0, len(event.Payload.Items))
	for _, item := range event.Payload.Items {
		itemIDs = append(itemIDs, item.ItemID)
	}
	sheet, err := l.sheets.Create(ctx, &dto.CreateInput{
		LocationID:  event.Payload.LocationID,
		RequestedBy: event.Payload.CountedBy,
		ItemIDs:     itemIDs,
	})
	if err != nil {
		l.logger.Error("failed to create count sheet",
			zap.String("location_id", event.Payload.LocationID), zap.Error(err))
		return
	}

	for _, item := range event.Payload.Items {
		if _, err := l.sheets.RecordCount(ctx, &dto.RecordCountInput{
			SheetID:         sheet.ID,
			ItemID:          item.ItemID,
			CountedQuantity: item.CountedQuantity,
			CountedBy:       event.Payload.CountedBy,
		}); err != nil {
			l.logger.Error("failed to record count",
				zap.String("sheet_id", sheet.ID),
				zap.String("item_id", item.ItemID),
				zap.Error(err),
			)
			return
		}
	}

	completed, err := l.sheets.Complete(ctx, sheet.ID)
	if err != nil {
		l.logger.Error("failed to complete count sheet",
			zap.String("sheet_id", sheet.ID), zap.Error(err))
		return
	}
	l.logger.Info("count sheet completed",
		zap.String("sheet_id", sheet.ID),
		zap.String("status", string(completed.Status)),
	)
}
