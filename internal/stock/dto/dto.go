package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type MovementFilters struct {
	QRCode       string
	MovementType model.MovementType
	Location     string // matches from or to
	CreatedBy    string
	Status       model.MovementStatus
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}
