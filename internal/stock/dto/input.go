package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type RegisterItemInput struct {
	QRCode      string
	Description string
	Location    string
	Notes       string
}

type RecordCountInput struct {
	QRCode     string
	Quantities model.Quantities
	CountType  model.CountType // defaults to manual
	Notes      string

	// Used only when the item does not exist yet.
	Description string
	Location    string
}

type AdjustmentMode string

const (
	// AdjustSet treats the quantities as the new absolute stock.
	AdjustSet AdjustmentMode = "set"
	// AdjustDelta treats the quantities as signed changes.
	AdjustDelta AdjustmentMode = "delta"
)

type MovementInput struct {
	QRCode         string
	MovementType   model.MovementType
	Quantities     model.Quantities
	AdjustmentMode AdjustmentMode // adjustment only, defaults to set
	FromLocation   string
	ToLocation     string
	Reason         string
	ReferenceDoc   string
	CreatedBy      string

	// Notes overrides the generated ledger note.
	Notes string
}
