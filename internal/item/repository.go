package item

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// GetByCode returns nil, nil when the code was never registered.
	GetByCode(ctx context.Context, qrCode string) (*model.Item, error)
	Create(ctx context.Context, item *model.Item) (int64, error)
	UpdateDetails(ctx context.Context, item *model.Item) error
	UpdateLocation(ctx context.Context, qrCode, location string, at time.Time) error
	UpdateStatus(ctx context.Context, qrCode string, status model.ItemStatus, at time.Time) error

	FindAll(ctx context.Context, filters *dto.ItemFilters) ([]model.ItemWithStock, int, error)
	ListByLocation(ctx context.Context, location string, status model.ItemStatus) ([]model.ItemWithStock, error)
}
