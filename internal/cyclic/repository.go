package cyclic

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/cyclic/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, c *model.CyclicCount) (int64, error)
	// GetByID and GetActiveByLocation return nil, nil when nothing matches.
	GetByID(ctx context.Context, id int64) (*model.CyclicCount, error)
	GetActiveByLocation(ctx context.Context, location string) (*model.CyclicCount, error)
	Update(ctx context.Context, c *model.CyclicCount) error
	Delete(ctx context.Context, id int64) (bool, error)

	FindAll(ctx context.Context, filters *dto.CyclicFilters) ([]model.CyclicCount, error)
}
