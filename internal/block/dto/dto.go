package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type BlockInput struct {
	QRCode    string
	BlockType model.BlockType
	Reason    string
	BlockedBy string
	Notes     string
}

type BlockFilters struct {
	QRCode    string
	BlockType model.BlockType
	Status    model.BlockStatus
	BlockedBy string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
