package models

import "time"

const (
	DefaultFinePerLateDay int64 = 10
	DefaultDamageFine     int64 = 100
)

// FinePolicy prices a returned loan.
type FinePolicy struct {
	PerLateDay int64
	Damage     int64
}

func DefaultFinePolicy() FinePolicy {
	return FinePolicy{PerLateDay: DefaultFinePerLateDay, Damage: DefaultDamageFine}
}

// LateDays counts whole days elapsed past due. Partial days do not count.
func LateDays(due, returned time.Time) int64 {
	if !returned.After(due) {
		return 0
	}
	return int64(returned.Sub(due) / (24 * time.Hour))
}

// ComputeFine returns lateDays*PerLateDay plus Damage when the book came back damaged.
func (p FinePolicy) ComputeFine(due, returned time.Time, damaged bool) int64 {
	fine := LateDays(due, returned) * p.PerLateDay
	if damaged {
		fine += p.Damage
	}
	return fine
}
