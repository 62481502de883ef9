package payment

import (
	"context"
	"fmt"
)

// StubProvider answers link requests locally; used in development when no
// PayOS credentials are configured.
type StubProvider struct{}

func (s *StubProvider) CreatePaymentLink(ctx context.Context, req LinkRequest) (*LinkResponse, error) {
	id := fmt.Sprintf("stub_%d", req.OrderCode)
	return &LinkResponse{
		PaymentLinkID: id,
		CheckoutURL:   "https://pay.example.test/" + id,
		QRCode:        "stub-qr-" + id,
	}, nil
}

func (s *StubProvider) VerifyWebhookSignature(rawBody []byte) error {
	return nil
}
