package payment

import (
	"context"
)

// LinkRequest carries everything needed to open a checkout link at the
// gateway. Amount is in whole VND; OrderCode must be unique per attempt.
type LinkRequest struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
}

// LinkResponse is the gateway's answer to a successful link creation.
type LinkResponse struct {
	PaymentLinkID string
	CheckoutURL   string
	QRCode        string
}

// Provider abstracts the payment gateway. CreatePaymentLink does not retry:
// idempotency belongs to the orchestrator, which may reissue exactly once
// with a fresh order code when the gateway reports a code collision.
type Provider interface {
	CreatePaymentLink(ctx context.Context, req LinkRequest) (*LinkResponse, error)
	VerifyWebhookSignature(rawBody []byte) error
}
