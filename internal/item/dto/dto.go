package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type ItemFilters struct {
	Search   string // matches qr_code, description or location
	Location string
	Status   model.ItemStatus
	Page     int
	PageSize int
}
