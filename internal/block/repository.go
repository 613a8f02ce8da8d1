package block

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/block/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// GetActive returns nil, nil when the item has no active block.
	GetActive(ctx context.Context, qrCode string) (*model.ItemBlock, error)
	GetByID(ctx context.Context, id int64) (*model.ItemBlock, error)
	Create(ctx context.Context, b *model.ItemBlock) (int64, error)
	Release(ctx context.Context, b *model.ItemBlock) error

	FindAll(ctx context.Context, filters *dto.BlockFilters) ([]model.ItemBlock, int, error)
	ListByCode(ctx context.Context, qrCode string) ([]model.ItemBlock, error)
	Summary(ctx context.Context, from, to *time.Time, now time.Time) ([]model.BlockTypeSummary, error)
}
