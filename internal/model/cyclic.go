package model

import "time"

type CyclicStatus string

const (
	CyclicActive    CyclicStatus = "active"
	CyclicPaused    CyclicStatus = "paused"
	CyclicCompleted CyclicStatus = "completed"
)

func (s CyclicStatus) Valid() bool {
	switch s {
	case CyclicActive, CyclicPaused, CyclicCompleted:
		return true
	}
	return false
}

type CyclicCount struct {
	ID            int64        `db:"id" json:"id"`
	Location      string       `db:"location" json:"location"`
	FrequencyDays int          `db:"frequency_days" json:"frequency_days"`
	LastCountDate *time.Time   `db:"last_count_date" json:"last_count_date"`
	NextCountDate time.Time    `db:"next_count_date" json:"next_count_date"`
	Status        CyclicStatus `db:"status" json:"status"`
	CreatedBy     string       `db:"created_by" json:"created_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

type CountStatus string

const (
	CountNeverCounted CountStatus = "never_counted"
	CountOverdue      CountStatus = "overdue"
	CountCurrent      CountStatus = "current"
)

type PendingItem struct {
	Item          ItemWithStock `json:"item"`
	CountStatus   CountStatus   `json:"count_status"`
	ThresholdDays int           `json:"threshold_days"`
}

// ExecuteResult is the snapshot handed to the counter after a cycle starts.
type ExecuteResult struct {
	CyclicCount *CyclicCount    `json:"cyclic_count"`
	Location    string          `json:"location"`
	ItemsCount  int             `json:"items_count"`
	Items       []ItemWithStock `json:"items"`
}

type ScheduleStatus string

const (
	ScheduleOverdue    ScheduleStatus = "overdue"
	ScheduleDueSoon    ScheduleStatus = "due_soon"
	ScheduleOnSchedule ScheduleStatus = "on_schedule"
)

type CyclicPerformance struct {
	CyclicCount
	TotalItems         int            `json:"total_items"`
	ItemsCountedOnTime int            `json:"items_counted_on_time"`
	CompliancePercent  *float64       `json:"compliance_percentage"`
	ScheduleStatus     ScheduleStatus `json:"schedule_status"`
}
