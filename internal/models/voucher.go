package models

import (
	"time"

	"gorm.io/gorm"
)

type Voucher struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Type string `gorm:"size:20;not null" json:"type"` // FIXED | PERCENT | SHIPPING

	// DiscountValue is the flat amount for FIXED vouchers.
	DiscountValue int64 `json:"discount_value"`
	// DiscountPercent applies to PERCENT (of subtotal) and SHIPPING (of the
	// shipping fee; 0 means the full fee).
	DiscountPercent int `json:"discount_percent"`
	// MaxDiscount caps a PERCENT payout; 0 = uncapped.
	MaxDiscount   int64 `json:"max_discount"`
	MinOrderValue int64 `json:"min_order_value"`

	ExpiresAt    *time.Time `json:"expires_at"`
	MaxUsage     int        `gorm:"not null;default:0" json:"max_usage"`
	CurrentUsage int        `gorm:"not null;default:0" json:"current_usage"`
	IsValid      bool       `gorm:"not null;default:true;index" json:"is_valid"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Voucher) TableName() string {
	return "vouchers"
}
