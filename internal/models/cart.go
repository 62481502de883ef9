package models

import (
	"time"
)

// Cart is open while CheckedOut is false. The partial unique index on
// (user_id, open_marker) is what actually guarantees one open cart per user;
// open_marker is the user id for an open cart and NULL once checked out, so
// closed carts never collide. See CartRepository.GetOrCreateOpen.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	CheckedOut bool       `gorm:"not null;default:false" json:"checked_out"`
	OpenMarker *uint      `gorm:"uniqueIndex:idx_carts_one_open" json:"-"`
	CheckedAt  *time.Time `json:"checked_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	CartID uint `gorm:"not null;index:idx_cart_product,unique" json:"cart_id"`
	// ProductID is unique per cart; adding the same product bumps quantity.
	ProductID uint `gorm:"not null;index:idx_cart_product,unique" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`
	// UnitPrice is snapshotted when the item is added so a later catalog
	// price change never silently reprices an existing cart.
	UnitPrice int64     `gorm:"not null" json:"unit_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
