package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shoprent/internal/domain"
	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/pricing"
)

type RentalService struct {
	tx       repository.TxManager
	payments *PaymentService
	notifier Notifier
}

func NewRentalService(tx repository.TxManager, payments *PaymentService, notifier Notifier) *RentalService {
	return &RentalService{tx: tx, payments: payments, notifier: notifier}
}

type CreateRentalInput struct {
	ProductID uint
	Quantity  int
	StartDate time.Time
	EndDate   time.Time
}

type RentalOutput struct {
	RentalID    uint   `json:"rental_id"`
	Status      string `json:"status"`
	Days        int    `json:"days"`
	PricePerDay int64  `json:"price_per_day"`
	Subtotal    int64  `json:"subtotal"`
	Deposit     int64  `json:"deposit"`
	FinalAmount int64  `json:"final_amount"`
	// NextStep points the client at link creation; money movement is a
	// separate call so a rental can sit in PENDING without any link.
	NextStep string `json:"next_step,omitempty"`
}

// Create books a PENDING rental with all pricing frozen at booking time.
// No payment link is opened here and the rental is never auto-activated.
func (s *RentalService) Create(ctx context.Context, userID uint, in CreateRentalInput) (*RentalOutput, error) {
	if userID == 0 {
		return nil, NewError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Quantity <= 0 {
		return nil, NewError(http.StatusBadRequest, "quantity must be positive")
	}
	days, err := pricing.ComputeDays(in.StartDate, in.EndDate)
	if err != nil {
		return nil, NewError(http.StatusBadRequest, err.Error())
	}

	var out *RentalOutput
	err = s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		product, err := st.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return err
		}
		if !product.IsActive || !product.Rentable {
			return NewError(http.StatusBadRequest, "product is not rentable")
		}

		plan, err := s.planFor(ctx, st, product)
		if err != nil {
			return err
		}
		if days < plan.MinDays {
			return NewError(http.StatusBadRequest, "rental shorter than the plan minimum")
		}

		rate := pricing.SelectDailyRate(plan.BasePricePerDay, tierViews(plan.Tiers), days)
		subtotal := rate * int64(days) * int64(in.Quantity)
		deposit := plan.Deposit * int64(in.Quantity)

		rental := &models.Rental{
			UserID:        userID,
			Status:        domain.RentalStatusPending,
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			Subtotal:      subtotal,
			Deposit:       deposit,
			LateFeePerDay: plan.LateFeePerDay,
			Items: []models.RentalItem{{
				ProductID:   product.ID,
				ProductName: product.Name,
				PricePerDay: rate,
				Days:        days,
				Quantity:    in.Quantity,
				Subtotal:    subtotal,
				Deposit:     deposit,
			}},
		}
		if err := st.Rentals().Create(ctx, rental); err != nil {
			return err
		}
		out = &RentalOutput{
			RentalID:    rental.ID,
			Status:      rental.Status,
			Days:        days,
			PricePerDay: rate,
			Subtotal:    subtotal,
			Deposit:     deposit,
			FinalAmount: subtotal + deposit,
			NextStep:    "/api/v1/rentals/checkout",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.RentalBooked(userID, out.RentalID, out.Deposit)
	return out, nil
}

// planFor loads the product's rental plan, deriving and persisting one from
// the sale price the first time the product is rented.
func (s *RentalService) planFor(ctx context.Context, st repository.TxStores, product *models.Product) (*models.RentalPlan, error) {
	plan, err := st.RentalPlans().FindByProductID(ctx, product.ID)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	gen := pricing.GeneratePlan(product.SalePrice)
	plan = &models.RentalPlan{
		ProductID:       product.ID,
		BasePricePerDay: gen.BasePricePerDay,
		MinDays:         gen.MinDays,
		Deposit:         gen.Deposit,
		LateFeePerDay:   gen.LateFeePerDay,
		AutoGenerated:   true,
	}
	for _, t := range gen.Tiers {
		plan.Tiers = append(plan.Tiers, models.RentalPricingTier{
			ThresholdDays: t.ThresholdDays,
			PricePerDay:   t.PricePerDay,
		})
	}
	if err := st.RentalPlans().Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

type RentalCheckoutOutput struct {
	RentalID    uint   `json:"rental_id"`
	Subtotal    int64  `json:"subtotal"`
	Deposit     int64  `json:"deposit"`
	FinalAmount int64  `json:"final_amount"`
	CheckoutURL string `json:"checkout_url"`
	QRCode      string `json:"qr_code"`
}

// CreatePaymentLink opens (or reuses) the gateway link for a pending
// rental. The payable amount is recomputed from the frozen snapshot rather
// than trusted from the client.
func (s *RentalService) CreatePaymentLink(ctx context.Context, userID, rentalID uint) (*RentalCheckoutOutput, error) {
	var out *RentalCheckoutOutput
	err := s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		rental, err := st.Rentals().FindByID(ctx, rentalID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusNotFound, "rental not found")
		}
		if err != nil {
			return err
		}
		if rental.UserID != userID {
			return NewError(http.StatusNotFound, "rental not found")
		}
		if rental.Status != domain.RentalStatusPending {
			return NewError(http.StatusConflict, "rental is not awaiting payment")
		}

		// Defensive recompute from the frozen items; the header columns
		// should always agree but the gateway amount must be right.
		var subtotal, deposit int64
		for _, it := range rental.Items {
			subtotal += it.PricePerDay * int64(it.Days) * int64(it.Quantity)
			deposit += it.Deposit
		}
		final := subtotal + deposit
		if final <= 0 {
			return NewError(http.StatusBadRequest, "rental has nothing to pay")
		}

		p, err := s.payments.EnsureLink(ctx, st.Payments(), userID, domain.PaymentKindRental, rental.ID, final)
		if err != nil {
			return err
		}
		out = &RentalCheckoutOutput{
			RentalID:    rental.ID,
			Subtotal:    subtotal,
			Deposit:     deposit,
			FinalAmount: final,
			CheckoutURL: p.CheckoutURL,
			QRCode:      p.QRCode,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type RentalStatusOutput struct {
	RentalID      uint       `json:"rental_id"`
	Status        string     `json:"status"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	Subtotal      int64      `json:"subtotal"`
	Deposit       int64      `json:"deposit"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	LateFee       int64      `json:"late_fee,omitempty"`
	DepositRefund int64      `json:"deposit_refund,omitempty"`
	PaymentStatus string     `json:"payment_status,omitempty"`
	CheckoutURL   string     `json:"checkout_url,omitempty"`
	QRCode        string     `json:"qr_code,omitempty"`
}

// Status reports rental + payment state; link data only once a link exists.
func (s *RentalService) Status(ctx context.Context, userID, rentalID uint) (*RentalStatusOutput, error) {
	var out *RentalStatusOutput
	err := s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		rental, err := st.Rentals().FindByID(ctx, rentalID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusNotFound, "rental not found")
		}
		if err != nil {
			return err
		}
		if rental.UserID != userID {
			return NewError(http.StatusNotFound, "rental not found")
		}
		out = &RentalStatusOutput{
			RentalID:      rental.ID,
			Status:        rental.Status,
			StartDate:     rental.StartDate,
			EndDate:       rental.EndDate,
			Subtotal:      rental.Subtotal,
			Deposit:       rental.Deposit,
			ReturnedAt:    rental.ReturnedAt,
			LateFee:       rental.LateFee,
			DepositRefund: rental.DepositRefund,
		}
		p, err := st.Payments().FindLatestByReference(ctx, domain.PaymentKindRental, rental.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out.PaymentStatus = p.Status
		if p.GatewayLinkID != nil && p.Status == domain.PaymentStatusCreated {
			out.CheckoutURL = p.CheckoutURL
			out.QRCode = p.QRCode
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Activate is the operator path to ACTIVE; the webhook reconciler is the
// other. Already-active rentals are a no-op.
func (s *RentalService) Activate(ctx context.Context, rentalID uint) error {
	return s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		rental, err := st.Rentals().FindByID(ctx, rentalID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusNotFound, "rental not found")
		}
		if err != nil {
			return err
		}
		if rental.Status == domain.RentalStatusActive {
			return nil
		}
		if _, err := st.Rentals().ActivateIfPending(ctx, rentalID); err != nil {
			return err
		}
		return nil
	})
}

// Settle closes a rental on return: computes the late fee from the frozen
// per-day rate and fixes the deposit refund permanently.
func (s *RentalService) Settle(ctx context.Context, rentalID uint, returnedAt time.Time) (*RentalStatusOutput, error) {
	var out *RentalStatusOutput
	err := s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		rental, err := st.Rentals().FindByID(ctx, rentalID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusNotFound, "rental not found")
		}
		if err != nil {
			return err
		}

		var lateFee int64
		if returnedAt.After(rental.EndDate) {
			lateDays, _ := pricing.ComputeDays(rental.EndDate, returnedAt)
			lateFee = rental.LateFeePerDay * int64(lateDays)
		}
		refund := rental.Deposit - lateFee
		if refund < 0 {
			refund = 0
		}
		if err := rental.SetSettlement(returnedAt, lateFee, refund); err != nil {
			return NewError(http.StatusConflict, err.Error())
		}
		if err := st.Rentals().SaveSettlement(ctx, rental); err != nil {
			if errors.Is(err, models.ErrRentalSettled) {
				return NewError(http.StatusConflict, err.Error())
			}
			return err
		}
		out = &RentalStatusOutput{
			RentalID:      rental.ID,
			Status:        rental.Status,
			StartDate:     rental.StartDate,
			EndDate:       rental.EndDate,
			Subtotal:      rental.Subtotal,
			Deposit:       rental.Deposit,
			ReturnedAt:    rental.ReturnedAt,
			LateFee:       rental.LateFee,
			DepositRefund: rental.DepositRefund,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func tierViews(tiers []models.RentalPricingTier) []pricing.Tier {
	out := make([]pricing.Tier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, pricing.Tier{ThresholdDays: t.ThresholdDays, PricePerDay: t.PricePerDay})
	}
	return out
}
