package repository

import (
	"context"
	"errors"

	"shoprent/internal/domain"
	"shoprent/internal/models"

	"gorm.io/gorm"
)

type RentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

func (r *RentalRepository) Create(ctx context.Context, rental *models.Rental) error {
	return r.db.WithContext(ctx).Create(rental).Error
}

func (r *RentalRepository) FindByID(ctx context.Context, id uint) (*models.Rental, error) {
	var rental models.Rental
	err := r.db.WithContext(ctx).Preload("Items").First(&rental, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *RentalRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Rental, error) {
	var list []models.Rental
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// ActivateIfPending is the reconciler's idempotent transition: the PENDING
// guard in the WHERE clause makes duplicate deliveries a no-op.
func (r *RentalRepository) ActivateIfPending(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Rental{}).
		Where("id = ? AND status = ?", id, domain.RentalStatusPending).
		Update("status", domain.RentalStatusActive)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SaveSettlement persists the settlement fields set by Rental.SetSettlement.
// The status guard mirrors the model's rule so a settled rental can never be
// settled again even across concurrent operators.
func (r *RentalRepository) SaveSettlement(ctx context.Context, rental *models.Rental) error {
	res := r.db.WithContext(ctx).Model(&models.Rental{}).
		Where("id = ? AND status IN ?", rental.ID,
			[]string{domain.RentalStatusPending, domain.RentalStatusActive}).
		Updates(map[string]interface{}{
			"status":         rental.Status,
			"returned_at":    rental.ReturnedAt,
			"late_fee":       rental.LateFee,
			"deposit_refund": rental.DepositRefund,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrRentalSettled
	}
	return nil
}

type RentalPlanRepository struct {
	db *gorm.DB
}

func NewRentalPlanRepository(db *gorm.DB) *RentalPlanRepository {
	return &RentalPlanRepository{db: db}
}

func (r *RentalPlanRepository) FindByProductID(ctx context.Context, productID uint) (*models.RentalPlan, error) {
	var plan models.RentalPlan
	err := r.db.WithContext(ctx).Preload("Tiers").
		Where("product_id = ?", productID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *RentalPlanRepository) Create(ctx context.Context, plan *models.RentalPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *RentalPlanRepository) Update(ctx context.Context, plan *models.RentalPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}
