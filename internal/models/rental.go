package models

import (
	"errors"
	"time"

	"shoprent/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrRentalNotPending = errors.New("rental is not pending")
	ErrRentalSettled    = errors.New("rental is already settled")
)

type Rental struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Status    string    `gorm:"size:20;not null;index" json:"status"` // PENDING, ACTIVE, COMPLETED, CANCELLED
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`

	// Frozen at booking time, independent of later plan changes.
	Subtotal      int64 `gorm:"not null" json:"subtotal"`
	Deposit       int64 `gorm:"not null" json:"deposit"`
	LateFeePerDay int64 `gorm:"not null" json:"late_fee_per_day"`

	// Settlement, written exactly once by SetSettlement.
	ReturnedAt    *time.Time `json:"returned_at"`
	LateFee       int64      `json:"late_fee"`
	DepositRefund int64      `json:"deposit_refund"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []RentalItem `gorm:"foreignKey:RentalID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Rental) TableName() string {
	return "rentals"
}

// Activate moves a pending rental to ACTIVE. Any other starting state is an
// error; re-activation of an ACTIVE rental must be treated as a no-op by the
// caller, not forced through here.
func (r *Rental) Activate() error {
	if r.Status != domain.RentalStatusPending {
		return ErrRentalNotPending
	}
	r.Status = domain.RentalStatusActive
	return nil
}

// SetSettlement closes out the rental: the only path to COMPLETED. Allowed
// from PENDING (early cancellation-with-return) or ACTIVE. ReturnedAt, the
// late fee and the deposit refund are fixed permanently.
func (r *Rental) SetSettlement(returnedAt time.Time, lateFee, depositRefund int64) error {
	if r.Status != domain.RentalStatusPending && r.Status != domain.RentalStatusActive {
		return ErrRentalSettled
	}
	r.Status = domain.RentalStatusCompleted
	r.ReturnedAt = &returnedAt
	r.LateFee = lateFee
	r.DepositRefund = depositRefund
	return nil
}

// RentalItem freezes the per-day price and deposit share for one product in
// the rental. Subtotal = PricePerDay * Days * Quantity.
type RentalItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RentalID    uint      `gorm:"not null;index" json:"rental_id"`
	ProductID   uint      `gorm:"not null" json:"product_id"`
	ProductName string    `gorm:"size:255;not null" json:"product_name"`
	PricePerDay int64     `gorm:"not null" json:"price_per_day"`
	Days        int       `gorm:"not null" json:"days"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Subtotal    int64     `gorm:"not null" json:"subtotal"`
	Deposit     int64     `gorm:"not null" json:"deposit"`
	CreatedAt   time.Time `json:"created_at"`
}

func (RentalItem) TableName() string {
	return "rental_items"
}
