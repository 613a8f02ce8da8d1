package model

import "time"

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferInTransit TransferStatus = "in_transit"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

type TransferItemStatus string

const (
	TransferItemPending  TransferItemStatus = "pending"
	TransferItemShipped  TransferItemStatus = "shipped"
	TransferItemReceived TransferItemStatus = "received"
)

type LocationTransfer struct {
	ID             int64          `db:"id" json:"id"`
	TransferNumber string         `db:"transfer_number" json:"transfer_number"`
	FromLocation   string         `db:"from_location" json:"from_location"`
	ToLocation     string         `db:"to_location" json:"to_location"`
	TotalItems     int            `db:"total_items" json:"total_items"`
	Status         TransferStatus `db:"status" json:"status"`
	Notes          string         `db:"notes" json:"notes"`
	CreatedBy      string         `db:"created_by" json:"created_by"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	ApprovedBy     *string        `db:"approved_by" json:"approved_by"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approved_at"`
	CompletedBy    *string        `db:"completed_by" json:"completed_by"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at"`
	CancelledBy    *string        `db:"cancelled_by" json:"cancelled_by"`
	CancelledAt    *time.Time     `db:"cancelled_at" json:"cancelled_at"`
	Items          []TransferItem `db:"-" json:"items,omitempty"`
}

type TransferItem struct {
	ID         int64  `db:"id" json:"id"`
	TransferID int64  `db:"transfer_id" json:"transfer_id"`
	QRCode     string `db:"qr_code" json:"qr_code"`
	Quantities
	Total      int64              `db:"total" json:"total"` // generated column
	Status     TransferItemStatus `db:"status" json:"status"`
	ReceivedBy *string            `db:"received_by" json:"received_by"`
	ReceivedAt *time.Time         `db:"received_at" json:"received_at"`
}

type TransferStatusSummary struct {
	Status               TransferStatus `db:"status" json:"status"`
	Count                int64          `db:"count" json:"count"`
	OriginLocations      int64          `db:"origin_locations" json:"origin_locations"`
	DestinationLocations int64          `db:"destination_locations" json:"destination_locations"`
	TotalItems           int64          `db:"total_items" json:"total_items"`
	AvgItemsPerTransfer  float64        `db:"avg_items_per_transfer" json:"avg_items_per_transfer"`
}
