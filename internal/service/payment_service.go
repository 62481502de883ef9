package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"shoprent/config"
	"shoprent/internal/domain"
	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/payment"
)

// PaymentService owns payment-link creation against the gateway and the
// ledger rows that record every attempt. Both checkout paths (order and
// rental) funnel through EnsureLink so retries behave identically.
type PaymentService struct {
	tx      repository.TxManager
	gateway payment.Provider
	cfg     *config.CheckoutConfig
}

func NewPaymentService(tx repository.TxManager, gateway payment.Provider, cfg *config.CheckoutConfig) *PaymentService {
	return &PaymentService{tx: tx, gateway: gateway, cfg: cfg}
}

type LinkOutput struct {
	PaymentID   uint   `json:"payment_id"`
	Amount      int64  `json:"amount"`
	CheckoutURL string `json:"checkout_url"`
	QRCode      string `json:"qr_code"`
}

// CreateOrderLink re-derives the payable amount for an open order and
// ensures a payment link exists. Idempotent against repeated calls: the
// CREATED ledger row is reused.
func (s *PaymentService) CreateOrderLink(ctx context.Context, userID, orderID uint) (*LinkOutput, error) {
	var out *LinkOutput
	err := s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		order, err := st.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return NewError(http.StatusNotFound, "order not found")
		}
		if !order.CanComplete() {
			return NewError(http.StatusConflict, "order is not awaiting payment")
		}
		if order.FinalAmount <= 0 {
			return NewError(http.StatusBadRequest, "order has nothing to pay")
		}
		p, err := s.EnsureLink(ctx, st.Payments(), userID, domain.PaymentKindOrder, order.ID, order.FinalAmount)
		if err != nil {
			return err
		}
		out = &LinkOutput{PaymentID: p.ID, Amount: p.Amount, CheckoutURL: p.CheckoutURL, QRCode: p.QRCode}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type OrderStatusOutput struct {
	OrderID       uint   `json:"order_id"`
	Status        string `json:"status"`
	FinalAmount   int64  `json:"final_amount"`
	PaymentStatus string `json:"payment_status,omitempty"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
	QRCode        string `json:"qr_code,omitempty"`
}

// OrderStatus reports order + payment state. Link data appears only once a
// link actually exists so clients never render stale QR codes.
func (s *PaymentService) OrderStatus(ctx context.Context, userID, orderID uint) (*OrderStatusOutput, error) {
	var out *OrderStatusOutput
	err := s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		order, err := st.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return NewError(http.StatusNotFound, "order not found")
		}
		out = &OrderStatusOutput{OrderID: order.ID, Status: order.Status, FinalAmount: order.FinalAmount}
		p, err := st.Payments().FindLatestByReference(ctx, domain.PaymentKindOrder, order.ID)
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

// codeSeq breaks ties when two attempts land in the same millisecond.
var codeSeq uint32

// newOrderCode builds a gateway order code unique per attempt. The trailing
// kind digit keeps order and rental codes in disjoint spaces.
func newOrderCode(kind string) int64 {
	digit := int64(domain.OrderCodeDigitOrder)
	if kind == domain.PaymentKindRental {
		digit = domain.OrderCodeDigitRental
	}
	seq := int64(atomic.AddUint32(&codeSeq, 1) % 100)
	return (time.Now().UnixMilli()*100+seq)*10 + digit
}

func descriptionFor(kind string, referenceID uint) string {
	prefix := domain.DescPrefixOrder
	if kind == domain.PaymentKindRental {
		prefix = domain.DescPrefixRental
	}
	return fmt.Sprintf("%s %d", prefix, referenceID)
}

// EnsureLink returns the reusable CREATED ledger row for (kind, reference),
// or opens a fresh gateway link and records it. Safe to call again after a
// failed or interrupted checkout: the CREATED row is picked up instead of
// opening a second link. Runs against the caller's transaction stores.
func (s *PaymentService) EnsureLink(ctx context.Context, payments repository.PaymentStore, userID uint, kind string, referenceID uint, amount int64) (*models.Payment, error) {
	existing, err := payments.FindCreatedByReference(ctx, kind, referenceID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Amount == amount && existing.GatewayLinkID != nil {
			return existing, nil
		}
		// The amount was re-derived differently (or the link never came
		// back): retire the stale attempt and open a new one.
		if err := existing.Transition(domain.PaymentStatusFailed); err != nil {
			return nil, err
		}
		if _, err := payments.MarkFailed(ctx, existing.ID); err != nil {
			return nil, err
		}
		log.Printf("[Payment] retired stale attempt id=%d kind=%s ref=%d", existing.ID, kind, referenceID)
	}

	p := &models.Payment{
		Kind:             kind,
		ReferenceID:      referenceID,
		UserID:           userID,
		GatewayOrderCode: newOrderCode(kind),
		Amount:           amount,
		Status:           domain.PaymentStatusCreated,
		Description:      descriptionFor(kind, referenceID),
	}

	link, err := s.createLink(ctx, p)
	if errors.Is(err, payment.ErrOrderCodeTaken) {
		// Known transient collision: retry exactly once with a fresh code.
		p.GatewayOrderCode = newOrderCode(kind)
		link, err = s.createLink(ctx, p)
	}
	if err != nil {
		return nil, NewError(http.StatusBadGateway, "payment gateway unavailable")
	}

	linkID := link.PaymentLinkID
	p.GatewayLinkID = &linkID
	p.CheckoutURL = link.CheckoutURL
	p.QRCode = link.QRCode
	if err := payments.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PaymentService) createLink(ctx context.Context, p *models.Payment) (*payment.LinkResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	link, err := s.gateway.CreatePaymentLink(callCtx, payment.LinkRequest{
		OrderCode:   p.GatewayOrderCode,
		Amount:      p.Amount,
		Description: p.Description,
		ReturnURL:   s.cfg.ReturnURL,
		CancelURL:   s.cfg.CancelURL,
	})
	if err != nil && !errors.Is(err, payment.ErrOrderCodeTaken) {
		log.Printf("[Payment] create link failed code=%d ref=%s/%d: %v", p.GatewayOrderCode, p.Kind, p.ReferenceID, err)
	}
	return link, err
}
