package model

// Quantities is the three-bucket split every stock figure carries.
type Quantities struct {
	Unrestrict int64 `db:"unrestrict" json:"unrestrict"`
	FOC        int64 `db:"foc" json:"foc"`
	RFB        int64 `db:"rfb" json:"rfb"`
}

const (
	BucketUnrestrict = "unrestrict"
	BucketFOC        = "foc"
	BucketRFB        = "rfb"
)

func (q Quantities) Total() int64 {
	return q.Unrestrict + q.FOC + q.RFB
}

func (q Quantities) Add(o Quantities) Quantities {
	return Quantities{Unrestrict: q.Unrestrict + o.Unrestrict, FOC: q.FOC + o.FOC, RFB: q.RFB + o.RFB}
}

func (q Quantities) Sub(o Quantities) Quantities {
	return Quantities{Unrestrict: q.Unrestrict - o.Unrestrict, FOC: q.FOC - o.FOC, RFB: q.RFB - o.RFB}
}

func (q Quantities) Neg() Quantities {
	return Quantities{Unrestrict: -q.Unrestrict, FOC: -q.FOC, RFB: -q.RFB}
}

func (q Quantities) IsZero() bool {
	return q.Unrestrict == 0 && q.FOC == 0 && q.RFB == 0
}

// AnyNegative returns the first negative bucket name, or "".
func (q Quantities) AnyNegative() string {
	for _, b := range q.Buckets() {
		if b.Value < 0 {
			return b.Name
		}
	}
	return ""
}

// AnyPositive reports whether at least one bucket is above zero.
func (q Quantities) AnyPositive() bool {
	return q.Unrestrict > 0 || q.FOC > 0 || q.RFB > 0
}

type Bucket struct {
	Name  string
	Value int64
}

// Buckets lists the buckets in a fixed order.
func (q Quantities) Buckets() []Bucket {
	return []Bucket{
		{Name: BucketUnrestrict, Value: q.Unrestrict},
		{Name: BucketFOC, Value: q.FOC},
		{Name: BucketRFB, Value: q.RFB},
	}
}
