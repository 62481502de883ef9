package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPercentVoucher() Voucher {
	exp := time.Now().Add(24 * time.Hour)
	return Voucher{
		Code:            "GIAM10",
		Type:            VoucherTypePercent,
		DiscountPercent: 10,
		MaxDiscount:     500_000,
		MinOrderValue:   2_000_000,
		ExpiresAt:       &exp,
		MaxUsage:        100,
		CurrentUsage:    3,
		IsValid:         true,
	}
}

func TestEvaluateVoucher_PercentWithCap(t *testing.T) {
	d, err := EvaluateVoucher(validPercentVoucher(), 5_000_000, 35_000, time.Now())
	assert.NoError(t, err)
	// min(10% of 5,000,000, cap 500,000) = 500,000
	assert.Equal(t, int64(500_000), d.Product)
	assert.Equal(t, int64(0), d.Shipping)
	assert.Equal(t, int64(500_000), d.Total())
}

func TestEvaluateVoucher_PercentUncappedNeverExceedsSubtotal(t *testing.T) {
	v := validPercentVoucher()
	v.MaxDiscount = 0
	v.DiscountPercent = 100
	v.MinOrderValue = 0
	d, err := EvaluateVoucher(v, 300_000, 0, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(300_000), d.Product)
}

func TestEvaluateVoucher_Fixed(t *testing.T) {
	v := Voucher{Code: "TRU50K", Type: VoucherTypeFixed, DiscountValue: 50_000, IsValid: true}

	d, err := EvaluateVoucher(v, 200_000, 0, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(50_000), d.Product)

	// Clamped to subtotal when the flat value is larger.
	d, err = EvaluateVoucher(v, 30_000, 0, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(30_000), d.Product)
}

func TestEvaluateVoucher_ShippingNeverTouchesSubtotal(t *testing.T) {
	v := Voucher{Code: "FREESHIP", Type: VoucherTypeShipping, IsValid: true}
	d, err := EvaluateVoucher(v, 1_000_000, 35_000, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(0), d.Product)
	assert.Equal(t, int64(35_000), d.Shipping)

	v.DiscountPercent = 50
	d, err = EvaluateVoucher(v, 1_000_000, 35_000, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(17_500), d.Shipping)
}

func TestEvaluateVoucher_RejectionOrder(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	v := validPercentVoucher()
	v.IsValid = false
	_, err := EvaluateVoucher(v, 5_000_000, 0, now)
	assert.ErrorIs(t, err, ErrVoucherInvalid)

	v = validPercentVoucher()
	v.ExpiresAt = &past
	_, err = EvaluateVoucher(v, 5_000_000, 0, now)
	assert.ErrorIs(t, err, ErrVoucherExpired)

	v = validPercentVoucher()
	v.CurrentUsage = v.MaxUsage
	_, err = EvaluateVoucher(v, 5_000_000, 0, now)
	assert.ErrorIs(t, err, ErrVoucherExhausted)

	v = validPercentVoucher()
	_, err = EvaluateVoucher(v, 1_999_999, 0, now)
	assert.ErrorIs(t, err, ErrMinOrderNotMet)

	v = validPercentVoucher()
	v.DiscountPercent = 0
	_, err = EvaluateVoucher(v, 5_000_000, 0, now)
	assert.ErrorIs(t, err, ErrVoucherMisconfigured)
}

func TestEvaluateVoucher_UnlimitedUsage(t *testing.T) {
	v := validPercentVoucher()
	v.MaxUsage = 0 // unlimited
	v.CurrentUsage = 99999
	_, err := EvaluateVoucher(v, 5_000_000, 0, time.Now())
	assert.NoError(t, err)
}
