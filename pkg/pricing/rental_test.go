package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeDays(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	days, err := ComputeDays(start, start.Add(72*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 3, days)

	// Partial day rounds up.
	days, err = ComputeDays(start, start.Add(73*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 4, days)

	_, err = ComputeDays(start, start)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = ComputeDays(start, start.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestSelectDailyRate_HighestQualifyingFloor(t *testing.T) {
	tiers := []Tier{
		{ThresholdDays: 1, PricePerDay: 100_000},
		{ThresholdDays: 4, PricePerDay: 95_000},
		{ThresholdDays: 8, PricePerDay: 90_000},
		{ThresholdDays: 15, PricePerDay: 85_000},
		{ThresholdDays: 30, PricePerDay: 75_000},
	}

	// 10 days qualifies for {1,4,8}; the closest floor wins.
	assert.Equal(t, int64(90_000), SelectDailyRate(120_000, tiers, 10))
	assert.Equal(t, int64(100_000), SelectDailyRate(120_000, tiers, 1))
	assert.Equal(t, int64(75_000), SelectDailyRate(120_000, tiers, 90))
	assert.Equal(t, int64(85_000), SelectDailyRate(120_000, tiers, 15))

	// No qualifying tier: base rate.
	high := []Tier{{ThresholdDays: 7, PricePerDay: 50_000}}
	assert.Equal(t, int64(120_000), SelectDailyRate(120_000, high, 3))
}

func TestRoundToThousand(t *testing.T) {
	assert.Equal(t, int64(1000), RoundToThousand(0))
	assert.Equal(t, int64(1000), RoundToThousand(499))
	assert.Equal(t, int64(1000), RoundToThousand(1400))
	assert.Equal(t, int64(2000), RoundToThousand(1500))
	assert.Equal(t, int64(150_000), RoundToThousand(149_800))
}

func TestGeneratePlan(t *testing.T) {
	p := GeneratePlan(5_000_000)

	// 3% of 5,000,000 = 150,000/day
	assert.Equal(t, int64(150_000), p.BasePricePerDay)
	// deposit 70% of sale price
	assert.Equal(t, int64(3_500_000), p.Deposit)
	// late fee 120% of the daily rate
	assert.Equal(t, int64(180_000), p.LateFeePerDay)
	assert.Equal(t, 1, p.MinDays)

	assert.Len(t, p.Tiers, 5)
	assert.Equal(t, []Tier{
		{ThresholdDays: 1, PricePerDay: 150_000},
		{ThresholdDays: 4, PricePerDay: 143_000},
		{ThresholdDays: 8, PricePerDay: 135_000},
		{ThresholdDays: 15, PricePerDay: 128_000},
		{ThresholdDays: 30, PricePerDay: 113_000},
	}, p.Tiers)

	// Cheap products never round below the 1,000 VND floor.
	cheap := GeneratePlan(10_000)
	assert.Equal(t, int64(1000), cheap.BasePricePerDay)
}
