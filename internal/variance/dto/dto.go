package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type DetectInput struct {
	QRCode   string
	Counted  model.Quantities
	Location string // defaults to the item's location
	Reason   string
}

type VarianceFilters struct {
	Status    model.VarianceStatus
	Location  string
	QRCode    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}
