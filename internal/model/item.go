package model

import "time"

type ItemStatus string

const (
	ItemStatusActive      ItemStatus = "active"
	ItemStatusBlocked     ItemStatus = "blocked"
	ItemStatusTransferred ItemStatus = "transferred"
	ItemStatusDeleted     ItemStatus = "deleted"
)

type Item struct {
	ID          int64      `db:"id" json:"id"`
	QRCode      string     `db:"qr_code" json:"qr_code"`
	Description string     `db:"description" json:"description"`
	Location    string     `db:"location" json:"location"`
	Notes       string     `db:"notes" json:"notes"`
	Status      ItemStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ItemWithStock is an item joined with its latest ledger entry.
type ItemWithStock struct {
	Item
	Unrestrict    *int64   `db:"last_unrestrict" json:"unrestrict"`
	FOC           *int64   `db:"last_foc" json:"foc"`
	RFB           *int64   `db:"last_rfb" json:"rfb"`
	LastCountDate NullTime `db:"last_count_date" json:"last_count_date"`
}

func (i ItemWithStock) Quantities() Quantities {
	var q Quantities
	if i.Unrestrict != nil {
		q.Unrestrict = *i.Unrestrict
	}
	if i.FOC != nil {
		q.FOC = *i.FOC
	}
	if i.RFB != nil {
		q.RFB = *i.RFB
	}
	return q
}
