package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"shoprent/internal/domain"
	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// verifyOnlyGateway lets a test force signature verification to fail; link
// creation is never reached by the reconciler.
type verifyOnlyGateway struct {
	verifyErr error
}

func (g *verifyOnlyGateway) CreatePaymentLink(ctx context.Context, req payment.LinkRequest) (*payment.LinkResponse, error) {
	return nil, fmt.Errorf("not used")
}

func (g *verifyOnlyGateway) VerifyWebhookSignature(rawBody []byte) error {
	return g.verifyErr
}

func newReconciler(stores *mockTxStores, gateway payment.Provider, notifier *recordingNotifier) *ReconcileService {
	return NewReconcileService(&mockTxManager{stores: stores}, gateway, notifier)
}

func webhookBody(t *testing.T, success bool, data payment.WebhookData) []byte {
	t.Helper()
	code := "01"
	if success {
		code = payment.CodeSuccess
	}
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]interface{}{
		"code":      code,
		"desc":      "",
		"success":   success,
		"data":      json.RawMessage(raw),
		"signature": "sig-under-test",
	})
	require.NoError(t, err)
	return body
}

func ledgerRow() *models.Payment {
	linkID := "link-abc"
	return &models.Payment{
		ID: 21, Kind: domain.PaymentKindOrder, ReferenceID: 8, UserID: 7,
		GatewayOrderCode: 17561234567001, GatewayLinkID: &linkID,
		Amount: 4_535_000, Status: domain.PaymentStatusCreated,
		Description: "DH 8",
	}
}

func TestWebhookPaidCompletesOrder(t *testing.T) {
	stores := newMockTxStores()
	notifier := &recordingNotifier{}
	svc := newReconciler(stores, &verifyOnlyGateway{}, notifier)

	row := ledgerRow()
	stores.payments.On("FindByLinkID", mock.Anything, "link-abc").Return(row, nil)
	stores.payments.On("MarkPaid", mock.Anything, uint(21)).Return(true, nil)
	stores.orders.On("CompleteIfOpen", mock.Anything, uint(8)).Return(true, nil)

	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, true, payment.WebhookData{
		OrderCode: row.GatewayOrderCode, Amount: 4_535_000, PaymentLinkID: "link-abc", Code: "00",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)
	stores.orders.AssertCalled(t, "CompleteIfOpen", mock.Anything, uint(8))
	assert.Equal(t, []int64{4_535_000}, notifier.paymentPaid)
}

func TestWebhookRedeliveryIsNoOp(t *testing.T) {
	stores := newMockTxStores()
	notifier := &recordingNotifier{}
	svc := newReconciler(stores, &verifyOnlyGateway{}, notifier)

	row := ledgerRow()
	row.Status = domain.PaymentStatusPaid
	stores.payments.On("FindByLinkID", mock.Anything, "link-abc").Return(row, nil)

	body := webhookBody(t, true, payment.WebhookData{
		OrderCode: row.GatewayOrderCode, Amount: 4_535_000, PaymentLinkID: "link-abc", Code: "00",
	})
	outcome, err := svc.HandleWebhook(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	// The status-machine guard rejects PAID -> PAID before any UPDATE runs.
	stores.payments.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	stores.orders.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything)
	assert.Empty(t, notifier.paymentPaid)
}

func TestWebhookConcurrentDeliveryLosesRace(t *testing.T) {
	stores := newMockTxStores()
	notifier := &recordingNotifier{}
	svc := newReconciler(stores, &verifyOnlyGateway{}, notifier)

	// The row still reads CREATED, but a parallel delivery flips it first:
	// the conditional UPDATE finds no CREATED row to move.
	row := ledgerRow()
	stores.payments.On("FindByLinkID", mock.Anything, "link-abc").Return(row, nil)
	stores.payments.On("MarkPaid", mock.Anything, uint(21)).Return(false, nil)

	body := webhookBody(t, true, payment.WebhookData{
		OrderCode: row.GatewayOrderCode, Amount: 4_535_000, PaymentLinkID: "link-abc", Code: "00",
	})
	outcome, err := svc.HandleWebhook(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	stores.orders.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything)
	assert.Empty(t, notifier.paymentPaid)
}

func TestWebhookAmountMismatchMutatesNothing(t *testing.T) {
	stores := newMockTxStores()
	svc := newReconciler(stores, &verifyOnlyGateway{}, &recordingNotifier{})

	stores.payments.On("FindByLinkID", mock.Anything, "link-abc").Return(ledgerRow(), nil)

	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, true, payment.WebhookData{
		Amount: 1_000, PaymentLinkID: "link-abc", Code: "00",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmountMismatch, outcome)
	stores.payments.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	stores.orders.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything)
}

func TestWebhookBadSignatureIsAckedNoOp(t *testing.T) {
	stores := newMockTxStores()
	svc := newReconciler(stores, &verifyOnlyGateway{verifyErr: payment.ErrBadSignature}, &recordingNotifier{})

	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, true, payment.WebhookData{
		Amount: 4_535_000, PaymentLinkID: "link-abc", Code: "00",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeBadSignature, outcome)
	stores.payments.AssertNotCalled(t, "FindByLinkID", mock.Anything, mock.Anything)
}

func TestWebhookPingWithoutSignature(t *testing.T) {
	svc := newReconciler(newMockTxStores(), &verifyOnlyGateway{}, &recordingNotifier{})

	outcome, err := svc.HandleWebhook(context.Background(), []byte(`{"code":"00","desc":"service available"}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomePing, outcome)
}

func TestWebhookUnknownPaymentIsUnmapped(t *testing.T) {
	stores := newMockTxStores()
	svc := newReconciler(stores, &verifyOnlyGateway{}, &recordingNotifier{})

	stores.payments.On("FindByLinkID", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
	stores.payments.On("FindByOrderCode", mock.Anything, int64(42)).Return(nil, repository.ErrNotFound)

	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, true, payment.WebhookData{
		OrderCode: 42, Amount: 100, PaymentLinkID: "ghost", Code: "00",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmapped, outcome)
}

func TestWebhookFallsBackToOrderCode(t *testing.T) {
	stores := newMockTxStores()
	svc := newReconciler(stores, &verifyOnlyGateway{}, &recordingNotifier{})

	row := ledgerRow()
	stores.payments.On("FindByOrderCode", mock.Anything, row.GatewayOrderCode).Return(row, nil)
	stores.payments.On("MarkPaid", mock.Anything, uint(21)).Return(true, nil)
	stores.orders.On("CompleteIfOpen", mock.Anything, uint(8)).Return(true, nil)

	// No paymentLinkId in the event at all.
	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, true, payment.WebhookData{
		OrderCode: row.GatewayOrderCode, Amount: 4_535_000, Code: "00",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)
}

func TestWebhookFailureRetiresAttemptOnly(t *testing.T) {
	stores := newMockTxStores()
	notifier := &recordingNotifier{}
	svc := newReconciler(stores, &verifyOnlyGateway{}, notifier)

	stores.payments.On("FindByLinkID", mock.Anything, "link-abc").Return(ledgerRow(), nil)
	stores.payments.On("MarkFailed", mock.Anything, uint(21)).Return(true, nil)

	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, false, payment.WebhookData{
		Amount: 4_535_000, PaymentLinkID: "link-abc", Code: "01",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnoredFailure, outcome)
	stores.orders.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything)
	assert.Empty(t, notifier.paymentPaid)
}

func TestWebhookRentalPaymentActivatesRental(t *testing.T) {
	stores := newMockTxStores()
	svc := newReconciler(stores, &verifyOnlyGateway{}, &recordingNotifier{})

	linkID := "rental-link"
	row := &models.Payment{
		ID: 31, Kind: domain.PaymentKindRental, ReferenceID: 11, UserID: 7,
		GatewayLinkID: &linkID, Amount: 4_850_000, Status: domain.PaymentStatusCreated,
	}
	stores.payments.On("FindByLinkID", mock.Anything, "rental-link").Return(row, nil)
	stores.payments.On("MarkPaid", mock.Anything, uint(31)).Return(true, nil)
	stores.rentals.On("ActivateIfPending", mock.Anything, uint(11)).Return(true, nil)

	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, true, payment.WebhookData{
		Amount: 4_850_000, PaymentLinkID: "rental-link", Code: "00",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)
	stores.rentals.AssertCalled(t, "ActivateIfPending", mock.Anything, uint(11))
	stores.orders.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything)
}

func TestWebhookLegacyRowKindFromDescription(t *testing.T) {
	stores := newMockTxStores()
	svc := newReconciler(stores, &verifyOnlyGateway{}, &recordingNotifier{})

	linkID := "legacy-link"
	row := &models.Payment{
		ID: 51, ReferenceID: 4, UserID: 7,
		GatewayLinkID: &linkID, Amount: 200_000, Status: domain.PaymentStatusCreated,
		Description: "TX 4",
	}
	stores.payments.On("FindByLinkID", mock.Anything, "legacy-link").Return(row, nil)
	stores.payments.On("MarkPaid", mock.Anything, uint(51)).Return(true, nil)
	stores.rentals.On("ActivateIfPending", mock.Anything, uint(4)).Return(true, nil)

	outcome, err := svc.HandleWebhook(context.Background(), webhookBody(t, true, payment.WebhookData{
		Amount: 200_000, PaymentLinkID: "legacy-link", Code: "00",
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomePaid, outcome)
	stores.rentals.AssertCalled(t, "ActivateIfPending", mock.Anything, uint(4))
}
