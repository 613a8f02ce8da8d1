package stock

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

type Repository interface {
	// Ledger
	LatestCount(ctx context.Context, qrCode string) (*model.StockCount, error)
	InsertCount(ctx context.Context, count *model.StockCount) (int64, error)
	ListCounts(ctx context.Context, qrCode string) ([]model.StockCount, error)

	// Movements
	InsertMovement(ctx context.Context, movement *model.StockMovement) (int64, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	MovementStats(ctx context.Context, from, to *time.Time) (*model.MovementStats, error)
}
