package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/inventory-service/internal/countsheet"
	"github.com/kitchenops/inventory-service/internal/countsheet/dto"
	"github.com/kitchenops/inventory-service/internal/ledger"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/kitchenops/inventory-service/internal/txn"
	txndto "github.com/kitchenops/inventory-service/internal/txn/dto"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type countSheetUseCase struct {
	repo      countsheet.Repository
	ledger    *ledger.Ledger
	processor txn.Processor
	atomic    store.Atomic
	// tolerance is the absolute variance a counted item may carry and still
	// auto-approve without a reason code.
	tolerance decimal.Decimal
	logger    logger.ZapLogger
}

func NewCountSheetUseCase(
	repo countsheet.Repository,
	ledg *ledger.Ledger,
	processor txn.Processor,
	atomic store.Atomic,
	tolerance decimal.Decimal,
	log logger.ZapLogger,
) countsheet.UseCase {
	return &countSheetUseCase{
		repo:      repo,
		ledger:    ledg,
		processor: processor,
		atomic:    atomic,
		tolerance: tolerance,
		logger:    log,
	}
}

func (uc *countSheetUseCase) Create(ctx context.Context, input *dto.CreateInput) (*model.CountSheet, error) {
	switch {
	case input.LocationID == "":
		return nil, &model.ValidationError{Field: "locationId", Reason: "required"}
	case input.RequestedBy == "":
		return nil, &model.ValidationError{Field: "requestedBy", Reason: "required"}
	}

	now := time.Now()
	sheet := &model.CountSheet{
		ID:          uuid.New().String(),
		LocationID:  input.LocationID,
		CountDate:   now,
		Status:      model.CountSheetCreated,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Snapshot system quantities from the ledger at creation time; variances
	// are computed against this snapshot, not against whatever the ledger
	// says later.
	err := uc.atomic.Within(ctx, func(ctx context.Context) error {
		itemIDs := input.ItemIDs
		if len(itemIDs) == 0 {
			levels, err := uc.ledger.LevelsAtLocation(ctx, input.LocationID)
			if err != nil {
				return err
			}
			for _, level := range levels {
				itemIDs = append(itemIDs, level.ItemID)
			}
		}
		if len(itemIDs) == 0 {
			return &model.ValidationError{Field: "itemIds", Reason: "no items to count at location"}
		}

		for _, itemID := range itemIDs {
			level, err := uc.ledger.GetLevel(ctx, itemID, input.LocationID)
			if err != nil {
				return err
			}
			sheet.Items = append(sheet.Items, model.CountSheetItem{
				ID:             uuid.New().String(),
				SheetID:        sheet.ID,
				ItemID:         itemID,
				SystemQuantity: level.CurrentQuantity,
			})
		}
		return uc.repo.Create(ctx, sheet)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("count sheet created",
		zap.String("sheet_id", sheet.ID),
		zap.String("location_id", sheet.LocationID),
		zap.Int("items", len(sheet.Items)),
	)
	return sheet, nil
}

func (uc *countSheetUseCase) RecordCount(ctx context.Context, input *dto.RecordCountInput) (*model.CountSheet, error) {
	if input.CountedQuantity.IsNegative() {
		return nil, &model.ValidationError{Field: "countedQuantity", Reason: "must not be negative"}
	}

	var sheet *model.CountSheet
	err := uc.atomic.Within(ctx, func(ctx context.Context) error {
		var err error
		sheet, err = uc.repo.GetByID(ctx, input.SheetID)
		if err != nil {
			return err
		}
		if sheet.Status != model.CountSheetCreated && sheet.Status != model.CountSheetInProgress {
			return transitionError(sheet.Status, model.CountSheetInProgress)
		}

		item := findItem(sheet, input.ItemID)
		if item == nil {
			return fmt.Errorf("item %s on sheet %s: %w", input.ItemID, sheet.ID, model.ErrNotFound)
		}

		counted := input.CountedQuantity
		item.CountedQuantity = &counted
		item.VarianceQuantity = counted.Sub(item.SystemQuantity)
		// Within tolerance means no reason code is ever demanded for it.
		item.Approved = item.VarianceQuantity.Abs().LessThanOrEqual(uc.tolerance)

		sheet.Status = model.CountSheetInProgress
		if input.CountedBy != "" {
			countedBy := input.CountedBy
			sheet.CountedBy = &countedBy
		}
		sheet.UpdatedAt = time.Now()
		return uc.repo.Update(ctx, sheet)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (uc *countSheetUseCase) Complete(ctx context.Context, sheetID string) (*model.CountSheet, error) {
	var sheet *model.CountSheet
	err := uc.atomic.Within(ctx, func(ctx context.Context) error {
		var err error
		sheet, err = uc.repo.GetByID(ctx, sheetID)
		if err != nil {
			return err
		}
		if sheet.Status != model.CountSheetInProgress {
			return transitionError(sheet.Status, model.CountSheetCompleted)
		}
		for i := range sheet.Items {
			if !sheet.Items[i].Counted() {
				return &model.ValidationError{
					Field:  "items",
					Reason: fmt.Sprintf("item %s has no counted quantity", sheet.Items[i].ItemID),
				}
			}
		}

		sheet.Status = model.CountSheetCompleted
		uc.maybePromote(sheet)
		sheet.UpdatedAt = time.Now()
		return uc.repo.Update(ctx, sheet)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (uc *countSheetUseCase) AnnotateVariance(ctx context.Context, input *dto.AnnotateInput) (*model.CountSheet, error) {
	if input.ReasonCode == "" {
		return nil, &model.ValidationError{Field: "reasonCode", Reason: "required"}
	}

	var sheet *model.CountSheet
	err := uc.atomic.Within(ctx, func(ctx context.Context) error {
		var err error
		sheet, err = uc.repo.GetByID(ctx, input.SheetID)
		if err != nil {
			return err
		}
		if sheet.Status != model.CountSheetInProgress && sheet.Status != model.CountSheetCompleted {
			return transitionError(sheet.Status, model.CountSheetPendingApproval)
		}

		item := findItem(sheet, input.ItemID)
		if item == nil {
			return fmt.Errorf("item %s on sheet %s: %w", input.ItemID, sheet.ID, model.ErrNotFound)
		}
		reason := input.ReasonCode
		item.VarianceReasonCode = &reason

		if sheet.Status == model.CountSheetCompleted {
			uc.maybePromote(sheet)
		}
		sheet.UpdatedAt = time.Now()
		return uc.repo.Update(ctx, sheet)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

// maybePromote moves a completed sheet to pending approval once every item
// is either within tolerance or annotated with a reason code.
func (uc *countSheetUseCase) maybePromote(sheet *model.CountSheet) {
	for i := range sheet.Items {
		item := &sheet.Items[i]
		if !item.Approved && item.VarianceReasonCode == nil {
			return
		}
	}
	sheet.Status = model.CountSheetPendingApproval
}

func (uc *countSheetUseCase) Approve(ctx context.Context, input *dto.ApproveInput) (*model.CountSheet, error) {
	if input.ApprovedBy == "" {
		return nil, &model.ValidationError{Field: "approvedBy", Reason: "required"}
	}

	var sheet *model.CountSheet
	err := uc.atomic.Within(ctx, func(ctx context.Context) error {
		var err error
		sheet, err = uc.repo.GetByID(ctx, input.SheetID)
		if err != nil {
			return err
		}
		if sheet.Status != model.CountSheetPendingApproval {
			return transitionError(sheet.Status, model.CountSheetApproved)
		}

		// One adjustment per non-zero variance, emitted through the
		// transaction processor inside this same scope so a failure rolls
		// the whole approval back.
		for i := range sheet.Items {
			item := &sheet.Items[i]
			if item.VarianceQuantity.IsZero() {
				continue
			}
			notes := "count variance"
			if item.VarianceReasonCode != nil {
				notes = *item.VarianceReasonCode
			}
			if _, err := uc.processor.Adjust(ctx, &txndto.AdjustInput{
				UserID:        input.ApprovedBy,
				Reference:     sheet.ID,
				ItemID:        item.ItemID,
				LocationID:    sheet.LocationID,
				QuantityDelta: item.VarianceQuantity,
				Notes:         notes,
			}); err != nil {
				return err
			}
			item.Approved = true
		}

		now := time.Now()
		approvedBy := input.ApprovedBy
		sheet.Status = model.CountSheetApproved
		sheet.ApprovedBy = &approvedBy
		sheet.ApprovedAt = &now
		sheet.UpdatedAt = now
		return uc.repo.Update(ctx, sheet)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("count sheet approved",
		zap.String("sheet_id", sheet.ID),
		zap.String("approved_by", input.ApprovedBy),
	)
	return sheet, nil
}

func (uc *countSheetUseCase) Cancel(ctx context.Context, sheetID string) (*model.CountSheet, error) {
	var sheet *model.CountSheet
	err := uc.atomic.Within(ctx, func(ctx context.Context) error {
		var err error
		sheet, err = uc.repo.GetByID(ctx, sheetID)
		if err != nil {
			return err
		}
		if sheet.Status.Terminal() {
			return transitionError(sheet.Status, model.CountSheetCanceled)
		}
		sheet.Status = model.CountSheetCanceled
		sheet.UpdatedAt = time.Now()
		return uc.repo.Update(ctx, sheet)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (uc *countSheetUseCase) Get(ctx context.Context, id string) (*model.CountSheet, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *countSheetUseCase) List(ctx context.Context, filters *dto.ListFilters) ([]model.CountSheet, int, error) {
	return uc.repo.Find(ctx, filters)
}

func findItem(sheet *model.CountSheet, itemID string) *model.CountSheetItem {
	for i := range sheet.Items {
		if sheet.Items[i].ItemID == itemID {
			return &sheet.Items[i]
		}
	}
	return nil
}

func transitionError(from, to model.CountSheetStatus) error {
	return &model.ValidationError{
		Field:  "status",
		Reason: fmt.Sprintf("cannot move sheet from %s to %s", from, to),
	}
}
