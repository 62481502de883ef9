package models

import (
	"time"

	"gorm.io/gorm"
)

// RentalPlan holds the per-product rental baseline. One plan per product;
// auto-derived from the sale price on first use if the admin never set one.
type RentalPlan struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ProductID     uint           `gorm:"uniqueIndex;not null" json:"product_id"`
	BasePricePerDay int64        `gorm:"not null" json:"base_price_per_day"`
	MinDays       int            `gorm:"not null;default:1" json:"min_days"`
	Deposit       int64          `gorm:"not null" json:"deposit"`
	LateFeePerDay int64          `gorm:"not null" json:"late_fee_per_day"`
	AutoGenerated bool           `gorm:"default:false" json:"auto_generated"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Tiers []RentalPricingTier `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"tiers"`
}

func (RentalPlan) TableName() string {
	return "rental_plans"
}

// RentalPricingTier is a duration band: it applies to any rental of at least
// ThresholdDays days. Bands are floors, not ranges.
type RentalPricingTier struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PlanID        uint      `gorm:"not null;index:idx_plan_threshold,unique" json:"plan_id"`
	ThresholdDays int       `gorm:"not null;index:idx_plan_threshold,unique" json:"threshold_days"`
	PricePerDay   int64     `gorm:"not null" json:"price_per_day"`
	CreatedAt     time.Time `json:"created_at"`
}

func (RentalPricingTier) TableName() string {
	return "rental_pricing_tiers"
}
