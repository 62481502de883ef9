package repository

import (
	"context"
	"errors"

	"shoprent/internal/domain"
	"shoprent/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *PaymentRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where(query, args...).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) FindCreatedByReference(ctx context.Context, kind string, referenceID uint) (*models.Payment, error) {
	return r.first(ctx, "kind = ? AND reference_id = ? AND status = ?",
		kind, referenceID, domain.PaymentStatusCreated)
}

func (r *PaymentRepository) FindByLinkID(ctx context.Context, linkID string) (*models.Payment, error) {
	return r.first(ctx, "gateway_link_id = ?", linkID)
}

func (r *PaymentRepository) FindByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error) {
	return r.first(ctx, "gateway_order_code = ?", orderCode)
}

func (r *PaymentRepository) FindLatestByReference(ctx context.Context, kind string, referenceID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).
		Where("kind = ? AND reference_id = ?", kind, referenceID).
		Order("created_at DESC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPaid applies CREATED -> PAID at the write boundary. The status guard
// in the WHERE clause is what makes webhook re-delivery a guaranteed no-op:
// the second delivery matches zero rows.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id uint) (bool, error) {
	return r.transition(ctx, id, map[string]interface{}{
		"status":  domain.PaymentStatusPaid,
		"paid_at": gorm.Expr("NOW()"),
	})
}

// MarkFailed applies CREATED -> FAILED; the business entity may later get a
// fresh attempt.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id uint) (bool, error) {
	return r.transition(ctx, id, map[string]interface{}{
		"status": domain.PaymentStatusFailed,
	})
}

func (r *PaymentRepository) transition(ctx context.Context, id uint, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusCreated).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
