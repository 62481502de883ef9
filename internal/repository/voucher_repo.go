package repository

import (
	"context"
	"errors"

	"shoprent/internal/models"

	"gorm.io/gorm"
)

type VoucherRepository struct {
	db *gorm.DB
}

func NewVoucherRepository(db *gorm.DB) *VoucherRepository {
	return &VoucherRepository{db: db}
}

func (r *VoucherRepository) Create(ctx context.Context, v *models.Voucher) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VoucherRepository) List(ctx context.Context, limit, offset int) ([]models.Voucher, error) {
	var list []models.Voucher
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *VoucherRepository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var v models.Voucher
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ConsumeUsage burns one use. The usage cap sits in the WHERE clause so two
// checkouts racing for the last use cannot both win; validity flips off in
// the same statement when this use exhausts the voucher.
func (r *VoucherRepository) ConsumeUsage(ctx context.Context, id uint) (bool, error) {
	// MySQL applies SET left to right, so the CASE reads the already
	// incremented usage count.
	res := r.db.WithContext(ctx).Exec(
		`UPDATE vouchers
		 SET current_usage = current_usage + 1,
		     is_valid = CASE WHEN max_usage > 0 AND current_usage >= max_usage THEN 0 ELSE is_valid END
		 WHERE id = ? AND (max_usage = 0 OR current_usage < max_usage)`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
