package pricing

import (
	"errors"
	"time"
)

// Voucher is the read-only view the engine needs. Callers map their storage
// model onto it; the engine itself never touches the database and is safe to
// run speculatively for price previews.
type Voucher struct {
	Code            string
	Type            string // FIXED | PERCENT | SHIPPING
	DiscountValue   int64
	DiscountPercent int
	MaxDiscount     int64 // 0 = uncapped
	MinOrderValue   int64
	ExpiresAt       *time.Time
	MaxUsage        int
	CurrentUsage    int
	IsValid         bool
}

const (
	VoucherTypeFixed    = "FIXED"
	VoucherTypePercent  = "PERCENT"
	VoucherTypeShipping = "SHIPPING"
)

// Typed rejection reasons, in the order the checks run.
var (
	ErrVoucherInvalid       = errors.New("voucher is no longer valid")
	ErrVoucherExpired       = errors.New("voucher has expired")
	ErrVoucherExhausted     = errors.New("voucher usage limit reached")
	ErrMinOrderNotMet       = errors.New("order subtotal below voucher minimum")
	ErrVoucherMisconfigured = errors.New("voucher is missing its discount value")
)

// Discount is the payout split. Callers sum the two parts for the final
// amount; keeping them apart lets SHIPPING vouchers never eat into subtotal.
type Discount struct {
	Product  int64
	Shipping int64
}

func (d Discount) Total() int64 { return d.Product + d.Shipping }

// EvaluateVoucher checks eligibility and computes the discount split for the
// given subtotal and shipping fee, both in whole VND. It mutates nothing:
// incrementing usage is the orchestrator's job at commit time.
func EvaluateVoucher(v Voucher, subtotal, shippingFee int64, now time.Time) (Discount, error) {
	if !v.IsValid {
		return Discount{}, ErrVoucherInvalid
	}
	if v.ExpiresAt != nil && now.After(*v.ExpiresAt) {
		return Discount{}, ErrVoucherExpired
	}
	if v.MaxUsage > 0 && v.CurrentUsage >= v.MaxUsage {
		return Discount{}, ErrVoucherExhausted
	}
	if subtotal < v.MinOrderValue {
		return Discount{}, ErrMinOrderNotMet
	}

	switch v.Type {
	case VoucherTypeFixed:
		if v.DiscountValue <= 0 {
			return Discount{}, ErrVoucherMisconfigured
		}
		return Discount{Product: clamp(v.DiscountValue, subtotal)}, nil

	case VoucherTypePercent:
		if v.DiscountPercent <= 0 || v.DiscountPercent > 100 {
			return Discount{}, ErrVoucherMisconfigured
		}
		d := roundedPercent(subtotal, v.DiscountPercent)
		cap := subtotal
		if v.MaxDiscount > 0 && v.MaxDiscount < cap {
			cap = v.MaxDiscount
		}
		return Discount{Product: clamp(d, cap)}, nil

	case VoucherTypeShipping:
		pct := v.DiscountPercent
		if pct <= 0 || pct > 100 {
			pct = 100
		}
		d := roundedPercent(shippingFee, pct)
		return Discount{Shipping: clamp(d, shippingFee)}, nil

	default:
		return Discount{}, ErrVoucherMisconfigured
	}
}

func clamp(v, max int64) int64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// roundedPercent computes base*pct% rounded half-away-from-zero to whole VND.
func roundedPercent(base int64, pct int) int64 {
	return (base*int64(pct) + 50) / 100
}
