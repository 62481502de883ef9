package models

import (
	"fmt"
	"time"

	"shoprent/internal/domain"

	"gorm.io/gorm"
)

// Payment is one ledger row per payment-link attempt at the gateway. It
// references an Order or a Rental by (Kind, ReferenceID) but owns nothing:
// an attempt can exist and fail without the business entity ever changing.
type Payment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Kind is stamped at creation and never inferred afterwards.
	Kind        string `gorm:"size:10;not null;index:idx_payment_ref" json:"kind"` // ORDER | RENTAL
	ReferenceID uint   `gorm:"not null;index:idx_payment_ref" json:"reference_id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`

	// GatewayOrderCode is the numeric code sent to the provider, unique per
	// attempt. GatewayLinkID arrives with the provider's response.
	GatewayOrderCode int64   `gorm:"uniqueIndex;not null" json:"gateway_order_code"`
	GatewayLinkID    *string `gorm:"uniqueIndex;size:64" json:"gateway_link_id"`

	Amount      int64  `gorm:"not null" json:"amount"`
	Status      string `gorm:"size:20;not null;index" json:"status"` // CREATED, PAID, FAILED, CANCELLED
	Description string `gorm:"size:255" json:"description"`
	CheckoutURL string `gorm:"size:512" json:"checkout_url"`
	QRCode      string `gorm:"type:text" json:"qr_code"`

	PaidAt    *time.Time     `json:"paid_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// paymentTransitions lists the only legal forward moves. Nothing leaves PAID.
var paymentTransitions = map[string][]string{
	domain.PaymentStatusCreated: {
		domain.PaymentStatusPaid,
		domain.PaymentStatusFailed,
		domain.PaymentStatusCancelled,
	},
}

// Transition validates and applies a status change. The repository layer
// re-enforces the same rule with a conditional UPDATE so that two concurrent
// writers cannot both win; this guard keeps call sites honest before they
// ever reach the database.
func (p *Payment) Transition(to string) error {
	for _, allowed := range paymentTransitions[p.Status] {
		if allowed == to {
			p.Status = to
			if to == domain.PaymentStatusPaid {
				now := time.Now()
				p.PaidAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("payment %d: illegal transition %s -> %s", p.ID, p.Status, to)
}
