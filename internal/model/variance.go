package model

import "time"

type VarianceStatus string

const (
	VariancePending  VarianceStatus = "pending"
	VarianceApproved VarianceStatus = "approved"
	VarianceRejected VarianceStatus = "rejected"
)

type InventoryVariance struct {
	ID                 int64          `db:"id" json:"id"`
	QRCode             string         `db:"qr_code" json:"qr_code"`
	Location           string         `db:"location" json:"location"`
	CountedUnrestrict  int64          `db:"counted_unrestrict" json:"counted_unrestrict"`
	CountedFOC         int64          `db:"counted_foc" json:"counted_foc"`
	CountedRFB         int64          `db:"counted_rfb" json:"counted_rfb"`
	SystemUnrestrict   int64          `db:"system_unrestrict" json:"system_unrestrict"`
	SystemFOC          int64          `db:"system_foc" json:"system_foc"`
	SystemRFB          int64          `db:"system_rfb" json:"system_rfb"`
	VarianceUnrestrict int64          `db:"variance_unrestrict" json:"variance_unrestrict"`
	VarianceFOC        int64          `db:"variance_foc" json:"variance_foc"`
	VarianceRFB        int64          `db:"variance_rfb" json:"variance_rfb"`
	VarianceTotal      int64          `db:"variance_total" json:"variance_total"`
	Reason             string         `db:"reason" json:"reason"`
	Status             VarianceStatus `db:"status" json:"status"`
	ApprovedBy         *string        `db:"approved_by" json:"approved_by"`
	ApprovedAt         *time.Time     `db:"approved_at" json:"approved_at"`
	CountDate          time.Time      `db:"count_date" json:"count_date"`
}

func (v *InventoryVariance) Counted() Quantities {
	return Quantities{Unrestrict: v.CountedUnrestrict, FOC: v.CountedFOC, RFB: v.CountedRFB}
}

func (v *InventoryVariance) System() Quantities {
	return Quantities{Unrestrict: v.SystemUnrestrict, FOC: v.SystemFOC, RFB: v.SystemRFB}
}

func (v *InventoryVariance) Variance() Quantities {
	return Quantities{Unrestrict: v.VarianceUnrestrict, FOC: v.VarianceFOC, RFB: v.VarianceRFB}
}

// Kind is "surplus", "shortage" or "match" by the sign of the total.
func (v *InventoryVariance) Kind() string {
	switch {
	case v.VarianceTotal > 0:
		return "surplus"
	case v.VarianceTotal < 0:
		return "shortage"
	}
	return "match"
}

// DetectResult is returned by detection whether or not a row was written.
type DetectResult struct {
	HasVariance bool               `json:"has_variance"`
	VarianceID  int64              `json:"id,omitempty"`
	Variance    Quantities         `json:"variance"`
	Total       int64              `json:"variance_total"`
	Kind        string             `json:"variance_type,omitempty"`
	Record      *InventoryVariance `json:"record,omitempty"`
}

type VarianceStats struct {
	TotalVariances         int64    `db:"total_variances" json:"total_variances"`
	PendingVariances       int64    `db:"pending_variances" json:"pending_variances"`
	ApprovedVariances      int64    `db:"approved_variances" json:"approved_variances"`
	RejectedVariances      int64    `db:"rejected_variances" json:"rejected_variances"`
	SurplusVariances       int64    `db:"surplus_variances" json:"surplus_variances"`
	ShortageVariances      int64    `db:"shortage_variances" json:"shortage_variances"`
	TotalAbsoluteVariance  int64    `db:"total_absolute_variance" json:"total_absolute_variance"`
	NetVariance            int64    `db:"net_variance" json:"net_variance"`
	MaxVariance            int64    `db:"max_variance" json:"max_variance"`
	LocationsWithVariances int64    `db:"locations_with_variances" json:"locations_with_variances"`
	ApprovalRate           *float64 `db:"approval_rate" json:"approval_rate"`
}
