package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"shoprent/internal/domain"
	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/payment"
)

// Webhook outcomes. Every path acknowledges the gateway; the tag says what
// the delivery actually did so retries and probes are distinguishable in logs.
const (
	OutcomePing            = "ping"
	OutcomeBadSignature    = "bad_signature"
	OutcomeUnmapped        = "unmapped"
	OutcomeIgnoredFailure  = "ignored_failure"
	OutcomeAmountMismatch  = "amount_mismatch"
	OutcomeDuplicate       = "duplicate"
	OutcomePaid            = "paid"
)

// ReconcileService applies gateway webhook deliveries to the payment ledger
// and the business entities behind it. Deliveries are at-least-once; every
// mutation here is guarded so replays land on OutcomeDuplicate.
type ReconcileService struct {
	tx       repository.TxManager
	gateway  payment.Provider
	notifier Notifier
}

func NewReconcileService(tx repository.TxManager, gateway payment.Provider, notifier Notifier) *ReconcileService {
	return &ReconcileService{tx: tx, gateway: gateway, notifier: notifier}
}

type reconcileResult struct {
	payment *models.Payment
	outcome string
}

// HandleWebhook processes one raw webhook body and returns the outcome tag.
// It never returns an error for gateway-side problems (bad signature, unknown
// payment, replay); only infrastructure failures surface, and the HTTP layer
// still acks those with an error tag rather than a retryable status.
func (s *ReconcileService) HandleWebhook(ctx context.Context, rawBody []byte) (string, error) {
	var env payment.WebhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return OutcomePing, nil
	}
	// Gateway URL-verification probes arrive without a signed data object.
	if env.Signature == "" || len(env.Data) == 0 {
		return OutcomePing, nil
	}

	if err := s.gateway.VerifyWebhookSignature(rawBody); err != nil {
		log.Printf("[Reconcile] rejected webhook: %v", err)
		return OutcomeBadSignature, nil
	}

	var data payment.WebhookData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Printf("[Reconcile] verified webhook with undecodable data: %v", err)
		return OutcomePing, nil
	}

	var res reconcileResult
	err := s.tx.WithinTx(ctx, func(st repository.TxStores) error {
		r, err := s.apply(ctx, st, &env, &data)
		if err != nil {
			return err
		}
		res = *r
		return nil
	})
	if err != nil {
		return "", err
	}

	if res.outcome == OutcomePaid {
		p := res.payment
		s.notifier.PaymentPaid(p.UserID, p.Kind, p.ReferenceID, p.Amount)
	}
	log.Printf("[Reconcile] orderCode=%d linkId=%s outcome=%s", data.OrderCode, data.PaymentLinkID, res.outcome)
	return res.outcome, nil
}

// apply resolves the ledger row and runs the guarded transitions. Runs inside
// one transaction so the payment flip and the entity flip commit together.
func (s *ReconcileService) apply(ctx context.Context, st repository.TxStores, env *payment.WebhookEnvelope, data *payment.WebhookData) (*reconcileResult, error) {
	p, err := s.resolve(ctx, st.Payments(), data)
	if errors.Is(err, repository.ErrNotFound) {
		return &reconcileResult{outcome: OutcomeUnmapped}, nil
	}
	if err != nil {
		return nil, err
	}

	if !env.Succeeded(data) {
		// Failure/cancellation events retire the attempt but never touch
		// the order or rental; the customer can open a fresh link.
		if err := p.Transition(domain.PaymentStatusFailed); err != nil {
			// Already settled one way or the other; nothing to retire.
			return &reconcileResult{payment: p, outcome: OutcomeIgnoredFailure}, nil
		}
		if _, err := st.Payments().MarkFailed(ctx, p.ID); err != nil {
			return nil, err
		}
		return &reconcileResult{payment: p, outcome: OutcomeIgnoredFailure}, nil
	}

	if data.Amount != p.Amount {
		log.Printf("[Reconcile] amount mismatch on orderCode=%d: got %d, ledger has %d", data.OrderCode, data.Amount, p.Amount)
		return &reconcileResult{payment: p, outcome: OutcomeAmountMismatch}, nil
	}

	// The model guard catches replays against the row we just read; the
	// conditional UPDATE then settles any race with a concurrent delivery.
	if err := p.Transition(domain.PaymentStatusPaid); err != nil {
		return &reconcileResult{payment: p, outcome: OutcomeDuplicate}, nil
	}
	moved, err := st.Payments().MarkPaid(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !moved {
		return &reconcileResult{payment: p, outcome: OutcomeDuplicate}, nil
	}

	switch s.kindOf(p) {
	case domain.PaymentKindOrder:
		if _, err := st.Orders().CompleteIfOpen(ctx, p.ReferenceID); err != nil {
			return nil, err
		}
	case domain.PaymentKindRental:
		if _, err := st.Rentals().ActivateIfPending(ctx, p.ReferenceID); err != nil {
			return nil, err
		}
	default:
		log.Printf("[Reconcile] payment %d has no resolvable kind, ledger updated only", p.ID)
	}
	return &reconcileResult{payment: p, outcome: OutcomePaid}, nil
}

// resolve maps the webhook to a ledger row: the gateway link id is the
// primary key into our records, the numeric order code the fallback for
// events emitted before the link id existed.
func (s *ReconcileService) resolve(ctx context.Context, payments repository.PaymentStore, data *payment.WebhookData) (*models.Payment, error) {
	if data.PaymentLinkID != "" {
		p, err := payments.FindByLinkID(ctx, data.PaymentLinkID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if data.OrderCode != 0 {
		return payments.FindByOrderCode(ctx, data.OrderCode)
	}
	return nil, repository.ErrNotFound
}

// kindOf reads the kind stamped on the ledger row. Rows written before the
// kind column existed fall back to the description prefix.
func (s *ReconcileService) kindOf(p *models.Payment) string {
	if p.Kind != "" {
		return p.Kind
	}
	switch {
	case strings.HasPrefix(p.Description, domain.DescPrefixOrder):
		return domain.PaymentKindOrder
	case strings.HasPrefix(p.Description, domain.DescPrefixRental):
		return domain.PaymentKindRental
	}
	return ""
}
