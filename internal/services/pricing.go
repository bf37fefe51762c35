package services

import (
	"math"
	"time"

	"github.com/acmetrans/mgcp/internal/models"
)

// Pricing arithmetic. Pure functions; callers own the rounding policy: the
// administrative modify path rounds to the nearest thousand, initial creation
// stores the raw figure.

// FinalPrice computes direct + indirect + direct*profit/100.
func FinalPrice(directCost, indirectCost, profitPercentage float64) float64 {
	return directCost + indirectCost + directCost*profitPercentage/100
}

// RoundToThousand rounds to the nearest 1000 currency units (CLP has no
// meaningful sub-thousand granularity on contracts of this size).
func RoundToThousand(v float64) float64 {
	return math.Round(v/1000) * 1000
}

// IndirectCostAverage returns the arithmetic mean of overhead records
// registered within the trailing window, or 0 when none qualify.
func IndirectCostAverage(records []models.IndirectCostRecord, now time.Time, windowDays int) float64 {
	cutoff := now.AddDate(0, 0, -windowDays)
	var sum float64
	var n int
	for _, r := range records {
		if r.RegisteredAt.Before(cutoff) {
			continue
		}
		sum += r.Amount
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
