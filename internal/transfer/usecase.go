package transfer

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateTransferInput) (*model.LocationTransfer, error)
	Approve(ctx context.Context, id int64, approvedBy string) (*model.LocationTransfer, error)
	Receive(ctx context.Context, id int64, receivedBy string) (*model.LocationTransfer, error)
	Cancel(ctx context.Context, id int64, cancelledBy, reason string) (*model.LocationTransfer, error)

	Get(ctx context.Context, id int64) (*model.LocationTransfer, error)
	List(ctx context.Context, filters *dto.TransferFilters) ([]model.LocationTransfer, int, error)
	Summary(ctx context.Context, from, to *time.Time) ([]model.TransferStatusSummary, error)
}
