package block

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/block/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	Block(ctx context.Context, input *dto.BlockInput) (*model.ItemBlock, error)
	Unblock(ctx context.Context, qrCode, actor, notes string) (*model.ItemBlock, error)
	UnblockByID(ctx context.Context, id int64, actor, notes string) (*model.ItemBlock, error)
	IsBlocked(ctx context.Context, qrCode string) (bool, error)
	ActiveBlock(ctx context.Context, qrCode string) (*model.ItemBlock, error)

	List(ctx context.Context, filters *dto.BlockFilters) ([]model.ItemBlock, int, error)
	History(ctx context.Context, qrCode string) ([]model.ItemBlock, error)
	Summary(ctx context.Context, from, to *time.Time) ([]model.BlockTypeSummary, error)
}

// Checker gates ledger writes on the block state of an item.
type Checker interface {
	Check(ctx context.Context, qrCode string) error
}
