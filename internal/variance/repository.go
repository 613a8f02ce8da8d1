package variance

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/variance/dto"
)

type Repository interface {
	Create(ctx context.Context, v *model.InventoryVariance) (int64, error)
	// GetByID returns nil, nil when no variance has that id.
	GetByID(ctx context.Context, id int64) (*model.InventoryVariance, error)
	// Resolve moves a pending variance to v.Status. It reports false when
	// the row was no longer pending.
	Resolve(ctx context.Context, v *model.InventoryVariance) (bool, error)

	FindAll(ctx context.Context, filters *dto.VarianceFilters) ([]model.InventoryVariance, int, error)
	Stats(ctx context.Context, since time.Time) (*model.VarianceStats, error)
}
