package pricing

import (
	"errors"
	"time"
)

var ErrInvalidDateRange = errors.New("end date must be after start date")

// Tier applies to rentals of at least ThresholdDays days.
type Tier struct {
	ThresholdDays int
	PricePerDay   int64
}

// Plan is a generated rental baseline for a product.
type Plan struct {
	BasePricePerDay int64
	MinDays         int
	Deposit         int64
	LateFeePerDay   int64
	Tiers           []Tier
}

// ComputeDays returns the billable day count for a rental window: the
// ceiling of the difference, so any started day is charged in full.
func ComputeDays(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, ErrInvalidDateRange
	}
	d := end.Sub(start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days, nil
}

// SelectDailyRate picks the tier with the largest threshold not exceeding
// days (highest qualifying floor). With no qualifying tier the plan's base
// rate applies. Tiers are bands keyed by minimum duration, not ranges, so a
// 10-day rental against thresholds {1,4,8,15,30} lands on 8.
func SelectDailyRate(basePricePerDay int64, tiers []Tier, days int) int64 {
	rate := basePricePerDay
	best := -1
	for _, t := range tiers {
		if t.ThresholdDays <= days && t.ThresholdDays > best {
			best = t.ThresholdDays
			rate = t.PricePerDay
		}
	}
	return rate
}

// Derivation constants for auto-generated plans. The daily rate is a fixed
// share of the sale price; deposit and late fee follow from it.
const (
	dailyRatePermille = 30   // 3% of sale price per day
	depositPercent    = 70   // of sale price
	lateFeePercent    = 120  // of the base daily rate
	roundingUnit      = 1000 // VND
)

// tier bands generated for every auto plan: longer rentals earn a lower
// per-day rate.
var autoTiers = []struct {
	thresholdDays int
	pct           int64
}{
	{1, 100},
	{4, 95},
	{8, 90},
	{15, 85},
	{30, 75},
}

// GeneratePlan derives a rental plan from a product's sale price. Used once
// per product when no admin-defined plan exists, then persisted and reused.
func GeneratePlan(salePrice int64) Plan {
	base := RoundToThousand(salePrice * dailyRatePermille / 1000)
	p := Plan{
		BasePricePerDay: base,
		MinDays:         1,
		Deposit:         RoundToThousand(salePrice * depositPercent / 100),
		LateFeePerDay:   RoundToThousand(base * lateFeePercent / 100),
	}
	for _, t := range autoTiers {
		p.Tiers = append(p.Tiers, Tier{
			ThresholdDays: t.thresholdDays,
			PricePerDay:   RoundToThousand(base * t.pct / 100),
		})
	}
	return p
}

// RoundToThousand rounds to the nearest 1,000 VND, never below 1,000.
func RoundToThousand(v int64) int64 {
	r := (v + roundingUnit/2) / roundingUnit * roundingUnit
	if r < roundingUnit {
		return roundingUnit
	}
	return r
}
