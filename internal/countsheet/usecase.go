package countsheet

import (
	"context"

	"github.com/kitchenops/inventory-service/internal/countsheet/dto"
	"github.com/kitchenops/inventory-service/internal/model"
)

// UseCase drives the physical-count workflow:
// Created → InProgress → Completed → PendingApproval → Approved | Canceled.
// Approval turns every non-zero variance into an adjustment transaction
// through the transaction processor, inside one atomic scope.
type UseCase interface {
	Create(ctx context.Context, input *dto.CreateInput) (*model.CountSheet, error)
	RecordCount(ctx context.Context, input *dto.RecordCountInput) (*model.CountSheet, error)
	Complete(ctx context.Context, sheetID string) (*model.CountSheet, error)
	AnnotateVariance(ctx context.Context, input *dto.AnnotateInput) (*model.CountSheet, error)
	Approve(ctx context.Context, input *dto.ApproveInput) (*model.CountSheet, error)
	Cancel(ctx context.Context, sheetID string) (*model.CountSheet, error)

	Get(ctx context.Context, id string) (*model.CountSheet, error)
	List(ctx context.Context, filters *dto.ListFilters) ([]model.CountSheet, int, error)
}
