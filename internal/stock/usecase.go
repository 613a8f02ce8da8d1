package stock

import (
	"context"
	"time"

	itemdto "github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

type UseCase interface {
	RegisterItem(ctx context.Context, input *dto.RegisterItemInput) (*model.Item, error)
	GetItem(ctx context.Context, qrCode string) (*model.Item, error)
	ListItems(ctx context.Context, filters *itemdto.ItemFilters) ([]model.ItemWithStock, int, error)
	DeleteItem(ctx context.Context, qrCode string) error

	RecordCount(ctx context.Context, input *dto.RecordCountInput) (int64, error)
	CurrentStock(ctx context.Context, qrCode string) (*model.StockSnapshot, error)
	CountedStock(ctx context.Context, qrCode string) (*model.StockSnapshot, error)
	History(ctx context.Context, qrCode string) ([]model.StockCount, error)

	ApplyMovement(ctx context.Context, input *dto.MovementInput) (*model.MovementResult, error)
	// ApplyInUnit applies a movement inside the caller's unit of work. The
	// caller must already hold the lock for input.QRCode and run inside
	// a transaction; transfer legs are only accepted here.
	ApplyInUnit(ctx context.Context, input *dto.MovementInput) (*model.MovementResult, error)

	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	MovementHistory(ctx context.Context, qrCode string, limit int) ([]model.StockMovement, error)
	MovementStats(ctx context.Context, from, to *time.Time) (*model.MovementStats, error)
}
