package services

import (
	"mentorhub/internal/status"
	"mentorhub/internal/store"
)

// Capacity is either unlimited or bounded by a maximum number of live
// memberships. The zero value is Unlimited.
type Capacity struct {
	max     int
	bounded bool
}

func Unlimited() Capacity {
	return Capacity{}
}

// Max returns a capacity bounded at n. n must be positive.
func Max(n int) Capacity {
	return Capacity{max: n, bounded: true}
}

// Limit returns the bound and true, or 0 and false when unlimited.
func (c Capacity) Limit() (int, bool) {
	return c.max, c.bounded
}

// Remaining returns the free slots for a given live count.
func (c Capacity) Remaining(count int) (int, bool) {
	if !c.bounded {
		return 0, false
	}
	return max(c.max-count, 0), true
}

func (c Capacity) ptr() *int {
	if !c.bounded {
		return nil
	}
	n := c.max
	return &n
}

// capacityFromRow reads a nullable capacity column. Missing, null and
// non-positive values are unlimited.
func capacityFromRow(row store.Row, field string) Capacity {
	if !row.Has(field) {
		return Unlimited()
	}
	if n := row.Int(field); n > 0 {
		return Max(n)
	}
	return Unlimited()
}

type Reason string

const (
	ReasonNone              Reason = ""
	ReasonAlreadyRegistered Reason = "AlreadyRegistered"
	ReasonFull              Reason = "Full"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

// Err maps a refusal onto its status error; nil when allowed.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonAlreadyRegistered:
		return status.ErrAlreadyRegistered
	case ReasonFull:
		return status.ErrFull
	}
	return nil
}

// CanRegister decides whether one more live membership may be created. The
// duplicate rule is checked before the capacity rule.
func CanRegister(c Capacity, count int, alreadyRegistered bool) Decision {
	if alreadyRegistered {
		return Decision{Reason: ReasonAlreadyRegistered}
	}
	if limit, ok := c.Limit(); ok && count >= limit {
		return Decision{Reason: ReasonFull}
	}
	return Decision{Allowed: true}
}
