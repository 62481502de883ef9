package repository

import (
	"context"
	"errors"
	"strings"

	"shoprent/internal/models"

	"gorm.io/gorm"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) FindOpenByUserID(ctx context.Context, userID uint) (*models.Cart, error) {
	var c models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Product").
		Where("user_id = ? AND checked_out = ?", userID, false).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateOpen relies on the unique open-marker index: when two callers
// race to create, the loser hits a duplicate-key error and re-reads the
// winner's cart, so exactly one open cart ever survives per user.
func (r *CartRepository) GetOrCreateOpen(ctx context.Context, userID uint) (*models.Cart, error) {
	c, err := r.FindOpenByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	marker := userID
	fresh := &models.Cart{UserID: userID, OpenMarker: &marker}
	if createErr := r.db.WithContext(ctx).Create(fresh).Error; createErr != nil {
		if isDuplicateKey(createErr) {
			return r.FindOpenByUserID(ctx, userID)
		}
		return nil, createErr
	}
	fresh.Items = []models.CartItem{}
	return fresh, nil
}

// UpsertItem adds a line or bumps quantity when the product is already in
// the cart, keeping the original price snapshot.
func (r *CartRepository) UpsertItem(ctx context.Context, cartID uint, item *models.CartItem) error {
	var existing models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, item.ProductID).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item.CartID = cartID
		return r.db.WithContext(ctx).Create(item).Error
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&existing).
		Update("quantity", existing.Quantity+item.Quantity).Error
}

func (r *CartRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCheckedOut flips the open cart and clears its open marker so the user
// can open a fresh cart. The checked_out guard makes the flip one-shot.
func (r *CartRepository) MarkCheckedOut(ctx context.Context, cartID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND checked_out = ?", cartID, false).
		Updates(map[string]interface{}{
			"checked_out": true,
			"open_marker": nil,
			"checked_at":  gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// isDuplicateKey matches MySQL error 1062 without importing the driver.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
