package variance

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variance/dto"
)

type UseCase interface {
	Detect(ctx context.Context, input *dto.DetectInput) (*model.DetectResult, error)
	Approve(ctx context.Context, id int64, approvedBy, reason string) (*model.InventoryVariance, error)
	Reject(ctx context.Context, id int64, rejectedBy, reason string) (*model.InventoryVariance, error)

	List(ctx context.Context, filters *dto.VarianceFilters) ([]model.InventoryVariance, int, error)
	// Stats covers variances counted at or after since; nil means the
	// last 30 days.
	Stats(ctx context.Context, since *time.Time) (*model.VarianceStats, error)
}
