package model

import "time"

type BlockType string

const (
	BlockCount       BlockType = "count"
	BlockTransfer    BlockType = "transfer"
	BlockAdjustment  BlockType = "adjustment"
	BlockMaintenance BlockType = "maintenance"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockCount, BlockTransfer, BlockAdjustment, BlockMaintenance:
		return true
	}
	return false
}

type BlockStatus string

const (
	BlockActive   BlockStatus = "active"
	BlockReleased BlockStatus = "released"
)

type ItemBlock struct {
	ID          int64       `db:"id" json:"id"`
	QRCode      string      `db:"qr_code" json:"qr_code"`
	BlockType   BlockType   `db:"block_type" json:"block_type"`
	Reason      string      `db:"reason" json:"reason"`
	Notes       string      `db:"notes" json:"notes"`
	Status      BlockStatus `db:"status" json:"status"`
	BlockedBy   string      `db:"blocked_by" json:"blocked_by"`
	BlockedAt   time.Time   `db:"blocked_at" json:"blocked_at"`
	UnblockedBy *string     `db:"unblocked_by" json:"unblocked_by"`
	UnblockedAt *time.Time  `db:"unblocked_at" json:"unblocked_at"`
}

// HoursBlocked measures until release, or until now for an active block.
func (b *ItemBlock) HoursBlocked(now time.Time) float64 {
	end := now
	if b.UnblockedAt != nil {
		end = *b.UnblockedAt
	}
	return end.Sub(b.BlockedAt).Hours()
}

type BlockTypeSummary struct {
	BlockType     BlockType `db:"block_type" json:"block_type"`
	TotalBlocks   int64     `db:"total_blocks" json:"total_blocks"`
	ActiveBlocks  int64     `db:"active_blocks" json:"active_blocks"`
	Released      int64     `db:"released_blocks" json:"released_blocks"`
	UniqueItems   int64     `db:"unique_items" json:"unique_items"`
	AvgHoursBlock float64   `db:"avg_hours_blocked" json:"avg_hours_blocked"`
}
