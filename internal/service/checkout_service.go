package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"shoprent/config"
	"shoprent/internal/domain"
	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/pricing"
	"shoprent/pkg/shipping"
)

// Notifier delivers best-effort notifications. Implementations must never
// block or fail the caller; see NotificationService.
type Notifier interface {
	OrderConfirmed(userID, orderID uint, finalAmount int64)
	RentalBooked(userID, rentalID uint, deposit int64)
	PaymentPaid(userID uint, kind string, referenceID uint, amount int64)
}

type CheckoutService struct {
	tx       repository.TxManager
	users    UserGetter
	quoter   shipping.Quoter
	payments *PaymentService
	notifier Notifier
	cfg      *config.CheckoutConfig
}

// UserGetter is the slice of the user repository checkout needs.
type UserGetter interface {
	GetByID(id uint) (*models.User, error)
}

func NewCheckoutService(tx repository.TxManager, users UserGetter, quoter shipping.Quoter, payments *PaymentService, notifier Notifier, cfg *config.CheckoutConfig) *CheckoutService {
	return &CheckoutService{tx: tx, users: users, quoter: quoter, payments: payments, notifier: notifier, cfg: cfg}
}

type CheckoutInput struct {
	ReceiverName  string
	ReceiverPhone string
	ProvinceID    int
	DistrictID    int
	WardCode      string
	Address       string
	// WeightGram overrides the per-item weight fallback when > 0.
	WeightGram    int
	PaymentMethod string // COD | QR
	VoucherCode   string
}

type CheckoutOutput struct {
	OrderID     uint   `json:"order_id"`
	Subtotal    int64  `json:"subtotal"`
	ShippingFee int64  `json:"shipping_fee"`
	Discount    int64  `json:"discount"`
	FinalAmount int64  `json:"final_amount"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	QRCode      string `json:"qr_code,omitempty"`
}

// Checkout turns the user's open cart into an order inside one transaction.
// Any failure before commit leaves no order, no voucher usage and an
// untouched cart.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (*CheckoutOutput, error) {
	if userID == 0 {
		return nil, NewError(http.StatusUnauthorized, "unauthorized")
	}
	if in.PaymentMethod != domain.PaymentMethodCOD && in.PaymentMethod != domain.PaymentMethodQR {
		return nil, NewError(http.StatusBadRequest, "invalid payment method")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, NewError(http.StatusUnauthorized, "unknown user")
	}
	dest := s.destination(user, in)
	if dest.DistrictID == 0 || dest.WardCode == "" {
		return nil, NewError(http.StatusBadRequest, "shipping destination required")
	}

	var out CheckoutOutput
	err = s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		cart, err := st.Carts().FindOpenByUserID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusBadRequest, "cart is empty")
		}
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return NewError(http.StatusBadRequest, "cart is empty")
		}

		var subtotal int64
		for _, it := range cart.Items {
			if it.Quantity <= 0 {
				return NewError(http.StatusBadRequest, "invalid cart quantity")
			}
			subtotal += it.UnitPrice * int64(it.Quantity)
		}

		// Shipping quote is mandatory; a dead quote service aborts the
		// whole checkout rather than guessing a fee.
		fee, err := s.quoteShipping(ctx, cart, in, dest, subtotal)
		if err != nil {
			log.Printf("[Checkout] shipping quote failed user=%d: %v", userID, err)
			return NewError(http.StatusBadGateway, "shipping quote unavailable")
		}

		var discount pricing.Discount
		var voucher *models.Voucher
		if in.VoucherCode != "" {
			voucher, err = st.Vouchers().FindByCode(ctx, in.VoucherCode)
			if errors.Is(err, repository.ErrNotFound) {
				return NewError(http.StatusBadRequest, "unknown voucher code")
			}
			if err != nil {
				return err
			}
			discount, err = pricing.EvaluateVoucher(voucherView(voucher), subtotal, fee, time.Now())
			if err != nil {
				return NewError(http.StatusBadRequest, err.Error())
			}
		}

		final := subtotal + fee - discount.Total()
		if final < 0 {
			final = 0
		}

		// Stock is claimed here, inside the transaction. A concurrent
		// checkout that took the last unit makes the conditional update
		// miss, and the whole checkout rolls back instead of overselling.
		for _, it := range cart.Items {
			ok, err := st.Products().DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return NewError(http.StatusBadRequest, "insufficient stock for "+it.Product.Name)
			}
		}

		order := &models.Order{
			UserID:        userID,
			Status:        domain.OrderStatusPending,
			Subtotal:      subtotal,
			ShippingFee:   fee,
			Discount:      discount.Total(),
			FinalAmount:   final,
			PaymentMethod: in.PaymentMethod,
			ReceiverName:  dest.ReceiverName,
			ReceiverPhone: dest.ReceiverPhone,
			ProvinceID:    dest.ProvinceID,
			DistrictID:    dest.DistrictID,
			WardCode:      dest.WardCode,
			Address:       dest.Address,
			Items:         frozenItems(cart.Items),
		}
		if voucher != nil {
			order.VoucherID = &voucher.ID
			order.VoucherCode = voucher.Code
		}
		if err := st.Orders().Create(ctx, order); err != nil {
			return err
		}

		// Usage burns only now, when the transaction is about to commit;
		// the speculative evaluation above mutated nothing.
		if voucher != nil {
			ok, err := st.Vouchers().ConsumeUsage(ctx, voucher.ID)
			if err != nil {
				return err
			}
			if !ok {
				return NewError(http.StatusBadRequest, "voucher usage limit reached")
			}
		}

		out = CheckoutOutput{
			OrderID:     order.ID,
			Subtotal:    subtotal,
			ShippingFee: fee,
			Discount:    discount.Total(),
			FinalAmount: final,
		}

		if in.PaymentMethod == domain.PaymentMethodQR && final > 0 {
			p, err := s.payments.EnsureLink(ctx, st.Payments(), userID, domain.PaymentKindOrder, order.ID, final)
			if err != nil {
				return err
			}
			out.CheckoutURL = p.CheckoutURL
			out.QRCode = p.QRCode
		}

		flipped, err := st.Carts().MarkCheckedOut(ctx, cart.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return NewError(http.StatusConflict, "cart already checked out")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit, detached from the request: a slow mailer must never
	// fail a checkout that already committed.
	s.notifier.OrderConfirmed(userID, out.OrderID, out.FinalAmount)
	return &out, nil
}

type destination struct {
	ReceiverName  string
	ReceiverPhone string
	ProvinceID    int
	DistrictID    int
	WardCode      string
	Address       string
}

// destination merges the request's shipping fields over the user's saved
// defaults.
func (s *CheckoutService) destination(u *models.User, in CheckoutInput) destination {
	d := destination{
		ReceiverName:  in.ReceiverName,
		ReceiverPhone: in.ReceiverPhone,
		ProvinceID:    in.ProvinceID,
		DistrictID:    in.DistrictID,
		WardCode:      in.WardCode,
		Address:       in.Address,
	}
	if d.ReceiverName == "" {
		d.ReceiverName = u.Name
	}
	if d.ReceiverPhone == "" {
		d.ReceiverPhone = u.Phone
	}
	if d.DistrictID == 0 {
		d.ProvinceID = u.ProvinceID
		d.DistrictID = u.DistrictID
		d.WardCode = u.WardCode
	}
	if d.Address == "" {
		d.Address = u.Address
	}
	return d
}

func (s *CheckoutService) quoteShipping(ctx context.Context, cart *models.Cart, in CheckoutInput, dest destination, subtotal int64) (int64, error) {
	weight := in.WeightGram
	if weight <= 0 {
		for _, it := range cart.Items {
			w := it.Product.WeightGram
			if w <= 0 {
				w = domain.DefaultItemWeight
			}
			weight += w * it.Quantity
		}
	}
	if weight < domain.MinShipmentWeight {
		weight = domain.MinShipmentWeight
	}
	if weight > domain.MaxShipmentWeight {
		weight = domain.MaxShipmentWeight
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.quoter.Quote(callCtx, shipping.QuoteRequest{
		ToDistrictID:   dest.DistrictID,
		ToWardCode:     dest.WardCode,
		Weight:         weight,
		Length:         domain.DefaultShipmentLength,
		Width:          domain.DefaultShipmentWidth,
		Height:         domain.DefaultShipmentHeight,
		InsuranceValue: subtotal,
	})
}

func frozenItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.Product.Name,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}
	return out
}

// voucherView maps the storage model onto the engine's input.
func voucherView(v *models.Voucher) pricing.Voucher {
	return pricing.Voucher{
		Code:            v.Code,
		Type:            v.Type,
		DiscountValue:   v.DiscountValue,
		DiscountPercent: v.DiscountPercent,
		MaxDiscount:     v.MaxDiscount,
		MinOrderValue:   v.MinOrderValue,
		ExpiresAt:       v.ExpiresAt,
		MaxUsage:        v.MaxUsage,
		CurrentUsage:    v.CurrentUsage,
		IsValid:         v.IsValid,
	}
}
