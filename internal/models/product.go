package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Slug      string         `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}

type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CategoryID  uint           `gorm:"index" json:"category_id"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	// SalePrice in whole VND. Rental plans are derived from it when absent.
	SalePrice  int64          `gorm:"not null" json:"sale_price"`
	Stock      int            `gorm:"not null;default:0" json:"stock"`
	WeightGram int            `gorm:"default:0" json:"weight_gram"` // 0 = use the per-item fallback at checkout
	ImageURL   string         `gorm:"size:512" json:"image_url"`
	Rentable   bool           `gorm:"default:false" json:"rentable"`
	IsActive   bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
