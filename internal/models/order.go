package models

import (
	"time"

	"shoprent/internal/domain"

	"gorm.io/gorm"
)

type Order struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Status string `gorm:"size:20;not null;index" json:"status"` // PENDING, PROCESSING, COMPLETED, CANCELLED

	// Amounts in whole VND. FinalAmount = Subtotal + ShippingFee - Discount,
	// floored at zero by the checkout orchestrator.
	Subtotal    int64 `gorm:"not null" json:"subtotal"`
	ShippingFee int64 `gorm:"not null" json:"shipping_fee"`
	Discount    int64 `gorm:"not null;default:0" json:"discount"`
	FinalAmount int64 `gorm:"not null" json:"final_amount"`

	// Voucher snapshot; the voucher row itself may later expire or be edited.
	VoucherID   *uint  `json:"voucher_id"`
	VoucherCode string `gorm:"size:64" json:"voucher_code"`

	PaymentMethod string `gorm:"size:10;not null" json:"payment_method"` // COD | QR

	// Shipping destination snapshot.
	ReceiverName  string `gorm:"size:128" json:"receiver_name"`
	ReceiverPhone string `gorm:"size:20" json:"receiver_phone"`
	ProvinceID    int    `json:"province_id"`
	DistrictID    int    `json:"district_id"`
	WardCode      string `gorm:"size:20" json:"ward_code"`
	Address       string `gorm:"size:512" json:"address"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Order) TableName() string {
	return "orders"
}

// CanComplete reports whether the order may still move to COMPLETED.
// COMPLETED and CANCELLED are terminal.
func (o *Order) CanComplete() bool {
	return o.Status == domain.OrderStatusPending || o.Status == domain.OrderStatusProcessing
}

// OrderItem is a frozen copy of a cart line at checkout time.
type OrderItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ProductID   uint      `gorm:"not null" json:"product_id"`
	ProductName string    `gorm:"size:255;not null" json:"product_name"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
