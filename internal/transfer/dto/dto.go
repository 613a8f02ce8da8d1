package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type TransferLine struct {
	QRCode     string
	Quantities model.Quantities
}

type CreateTransferInput struct {
	FromLocation string
	ToLocation   string
	Items        []TransferLine
	Notes        string
	CreatedBy    string
}

type TransferFilters struct {
	Status       model.TransferStatus
	FromLocation string
	ToLocation   string
	CreatedBy    string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}
