package model

import "time"

type CountType string

const (
	CountTypeManual     CountType = "manual"
	CountTypeCyclic     CountType = "cyclic"
	CountTypeAdjustment CountType = "adjustment"
	CountTypeMovement   CountType = "movement"
)

func (t CountType) Valid() bool {
	switch t {
	case CountTypeManual, CountTypeCyclic, CountTypeAdjustment, CountTypeMovement:
		return true
	}
	return false
}

// StockCount is one immutable ledger entry.
type StockCount struct {
	ID     int64  `db:"id" json:"id"`
	ItemID int64  `db:"item_id" json:"item_id"`
	QRCode string `db:"qr_code" json:"qr_code"`
	Quantities
	Total     int64     `db:"total" json:"total"` // generated column
	CountType CountType `db:"count_type" json:"count_type"`
	CountDate time.Time `db:"count_date" json:"count_date"`
	Notes     string    `db:"notes" json:"notes"`
}

// StockSnapshot is the current stock of one item code.
type StockSnapshot struct {
	QRCode string `json:"qr_code"`
	Quantities
	Total       int64      `json:"total"`
	AsOf        *time.Time `json:"as_of"`
	CountID     int64      `json:"count_id,omitempty"`
	EverCounted bool       `json:"ever_counted"`
}

func SnapshotFromCount(c *StockCount) *StockSnapshot {
	asOf := c.CountDate
	return &StockSnapshot{
		QRCode:      c.QRCode,
		Quantities:  c.Quantities,
		Total:       c.Quantities.Total(),
		AsOf:        &asOf,
		CountID:     c.ID,
		EverCounted: true,
	}
}

func EmptySnapshot(qrCode string) *StockSnapshot {
	return &StockSnapshot{QRCode: qrCode}
}

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementTransfer   MovementType = "transfer"
	MovementAdjustment MovementType = "adjustment"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementTransfer, MovementAdjustment:
		return true
	}
	return false
}

type MovementStatus string

const (
	MovementPending   MovementStatus = "pending"
	MovementCompleted MovementStatus = "completed"
	MovementCancelled MovementStatus = "cancelled"
)

// StockMovement is a directed delta. For "out" the quantities are the
// amounts removed; for "adjustment" and transfer legs they are signed.
type StockMovement struct {
	ID           int64        `db:"id" json:"id"`
	QRCode       string       `db:"qr_code" json:"qr_code"`
	MovementType MovementType `db:"movement_type" json:"movement_type"`
	FromLocation *string      `db:"from_location" json:"from_location"`
	ToLocation   *string      `db:"to_location" json:"to_location"`
	Quantities
	Total        int64          `db:"total" json:"total"` // generated column
	Reason       string         `db:"reason" json:"reason"`
	ReferenceDoc string         `db:"reference_doc" json:"reference_doc"`
	CreatedBy    string         `db:"created_by" json:"created_by"`
	Status       MovementStatus `db:"status" json:"status"`
	StockCountID int64          `db:"stock_count_id" json:"stock_count_id"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// MovementResult is what applying a movement produced.
type MovementResult struct {
	MovementID   int64      `json:"id"`
	StockCountID int64      `json:"stock_count_id"`
	Previous     Quantities `json:"previous_stock"`
	Applied      Quantities `json:"applied"`
	NewStock     Quantities `json:"new_stock"`
	NewTotal     int64      `json:"new_total"`
}

type MovementTypeStats struct {
	MovementType  MovementType `db:"movement_type" json:"movement_type"`
	Count         int64        `db:"count" json:"count"`
	TotalQuantity int64        `db:"total_quantity" json:"total_quantity"`
	UniqueItems   int64        `db:"unique_items" json:"unique_items"`
	UniqueUsers   int64        `db:"unique_users" json:"unique_users"`
}

type MovementStats struct {
	ByType             []MovementTypeStats `json:"by_type"`
	TotalMovements     int64               `db:"total_movements" json:"total_movements"`
	TotalItemsMoved    int64               `db:"total_items_moved" json:"total_items_moved"`
	TotalLocations     int64               `db:"total_locations" json:"total_locations"`
	TotalQuantityMoved int64               `db:"total_quantity_moved" json:"total_quantity_moved"`
}
