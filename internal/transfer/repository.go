package transfer

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/transfer/dto"
)

type Repository interface {
	Create(ctx context.Context, t *model.LocationTransfer) (int64, error)
	AddItem(ctx context.Context, line *model.TransferItem) (int64, error)
	// GetByID returns nil, nil when no transfer has that id.
	GetByID(ctx context.Context, id int64) (*model.LocationTransfer, error)
	ListItems(ctx context.Context, transferID int64) ([]model.TransferItem, error)
	// UpdateStatus writes status, stamps and notes only while the stored
	// status still equals expected. It reports whether a row changed.
	UpdateStatus(ctx context.Context, t *model.LocationTransfer, expected model.TransferStatus) (bool, error)
	MarkItemReceived(ctx context.Context, lineID int64, receivedBy string, at time.Time) error

	FindAll(ctx context.Context, filters *dto.TransferFilters) ([]model.LocationTransfer, int, error)
	Summary(ctx context.Context, from, to *time.Time) ([]model.TransferStatusSummary, error)
}
