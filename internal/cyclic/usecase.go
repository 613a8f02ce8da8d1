package cyclic

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/cyclic/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	Schedule(ctx context.Context, location string, frequencyDays int, createdBy string) (*model.CyclicCount, error)
	Execute(ctx context.Context, id int64, executedBy string) (*model.ExecuteResult, error)
	PendingFor(ctx context.Context, location string) ([]model.PendingItem, error)

	List(ctx context.Context, filters *dto.CyclicFilters) ([]model.CyclicCount, error)
	Update(ctx context.Context, id int64, input *dto.UpdateCyclicInput) (*model.CyclicCount, error)
	Delete(ctx context.Context, id int64) error
	Performance(ctx context.Context) ([]model.CyclicPerformance, error)
}
