package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shoprent/config"
	"shoprent/internal/domain"
	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testCheckoutConfig() *config.CheckoutConfig {
	return &config.CheckoutConfig{
		ReturnURL:   "http://localhost/return",
		CancelURL:   "http://localhost/cancel",
		CallTimeout: 5 * time.Second,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:         7,
		Name:       "Nguyen Van A",
		Phone:      "0900000000",
		ProvinceID: 202,
		DistrictID: 1442,
		WardCode:   "20101",
		Address:    "12 Le Loi",
	}
}

func openCart(items ...models.CartItem) *models.Cart {
	uid := uint(7)
	return &models.Cart{ID: 3, UserID: 7, OpenMarker: &uid, Items: items}
}

func cartItem(productID uint, price int64, qty, weightGram int) models.CartItem {
	return models.CartItem{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: price,
		Product:   models.Product{ID: productID, Name: "P", SalePrice: price, WeightGram: weightGram},
	}
}

func newCheckoutService(stores *mockTxStores, quoter *stubQuoter, notifier *recordingNotifier) *CheckoutService {
	tx := &mockTxManager{stores: stores}
	cfg := testCheckoutConfig()
	payments := NewPaymentService(tx, &payment.StubProvider{}, cfg)
	return NewCheckoutService(tx, &stubUsers{user: testUser()}, quoter, payments, notifier, cfg)
}

func TestCheckoutCODHappyPath(t *testing.T) {
	stores := newMockTxStores()
	quoter := &stubQuoter{fee: 35000}
	notifier := &recordingNotifier{}
	svc := newCheckoutService(stores, quoter, notifier)

	cart := openCart(cartItem(1, 2_500_000, 2, 300))
	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(cart, nil)
	stores.products.On("DecrementStock", mock.Anything, uint(1), 2).Return(true, nil)
	stores.orders.On("Create", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil)
	stores.carts.On("MarkCheckedOut", mock.Anything, uint(3)).Return(true, nil)

	out, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: domain.PaymentMethodCOD})
	require.NoError(t, err)

	assert.Equal(t, int64(5_000_000), out.Subtotal)
	assert.Equal(t, int64(35_000), out.ShippingFee)
	assert.Equal(t, int64(5_035_000), out.FinalAmount)
	assert.Empty(t, out.CheckoutURL)

	order := stores.orders.Calls[0].Arguments.Get(1).(*models.Order)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, int64(2_500_000), order.Items[0].UnitPrice)
	assert.Equal(t, "Nguyen Van A", order.ReceiverName)
	assert.Equal(t, 1442, order.DistrictID)

	// weight = 2 * 300g, insured for the subtotal
	assert.Equal(t, 600, quoter.last.Weight)
	assert.Equal(t, int64(5_000_000), quoter.last.InsuranceValue)

	stores.products.AssertCalled(t, "DecrementStock", mock.Anything, uint(1), 2)
	assert.Equal(t, []int64{5_035_000}, notifier.orderConfirmed)
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	stores := newMockTxStores()
	notifier := &recordingNotifier{}
	svc := newCheckoutService(stores, &stubQuoter{fee: 35000}, notifier)

	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(openCart(cartItem(1, 2_500_000, 2, 300)), nil)
	// Someone else took the last units after this cart was filled.
	stores.products.On("DecrementStock", mock.Anything, uint(1), 2).Return(false, nil)

	_, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: domain.PaymentMethodCOD})
	require.Error(t, err)
	assert.Equal(t, 400, HTTPStatus(err))
	stores.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	stores.carts.AssertNotCalled(t, "MarkCheckedOut", mock.Anything, mock.Anything)
	assert.Empty(t, notifier.orderConfirmed)
}

func TestCheckoutPercentVoucherCapped(t *testing.T) {
	stores := newMockTxStores()
	notifier := &recordingNotifier{}
	svc := newCheckoutService(stores, &stubQuoter{fee: 35000}, notifier)

	cart := openCart(cartItem(1, 5_000_000, 1, 200))
	voucher := &models.Voucher{
		ID: 9, Code: "GIAM10", Type: domain.VoucherTypePercent,
		DiscountPercent: 10, MaxDiscount: 500_000, IsValid: true,
	}
	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(cart, nil)
	stores.vouchers.On("FindByCode", mock.Anything, "GIAM10").Return(voucher, nil)
	stores.products.On("DecrementStock", mock.Anything, uint(1), 1).Return(true, nil)
	stores.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	stores.vouchers.On("ConsumeUsage", mock.Anything, uint(9)).Return(true, nil)
	stores.carts.On("MarkCheckedOut", mock.Anything, uint(3)).Return(true, nil)

	out, err := svc.Checkout(context.Background(), 7, CheckoutInput{
		PaymentMethod: domain.PaymentMethodCOD,
		VoucherCode:   "GIAM10",
	})
	require.NoError(t, err)

	// 10% of 5,000,000 is 500,000, exactly at the cap.
	assert.Equal(t, int64(500_000), out.Discount)
	assert.Equal(t, int64(4_535_000), out.FinalAmount)
	stores.vouchers.AssertCalled(t, "ConsumeUsage", mock.Anything, uint(9))

	order := stores.orders.Calls[0].Arguments.Get(1).(*models.Order)
	assert.Equal(t, "GIAM10", order.VoucherCode)
}

func TestCheckoutVoucherExhaustedAtCommit(t *testing.T) {
	stores := newMockTxStores()
	svc := newCheckoutService(stores, &stubQuoter{fee: 35000}, &recordingNotifier{})

	cart := openCart(cartItem(1, 1_000_000, 1, 200))
	voucher := &models.Voucher{ID: 9, Code: "LAST1", Type: domain.VoucherTypeFixed, DiscountValue: 50_000, IsValid: true, MaxUsage: 1}
	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(cart, nil)
	stores.vouchers.On("FindByCode", mock.Anything, "LAST1").Return(voucher, nil)
	stores.products.On("DecrementStock", mock.Anything, uint(1), 1).Return(true, nil)
	stores.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	// Another checkout burned the last usage between evaluation and commit.
	stores.vouchers.On("ConsumeUsage", mock.Anything, uint(9)).Return(false, nil)

	_, err := svc.Checkout(context.Background(), 7, CheckoutInput{
		PaymentMethod: domain.PaymentMethodCOD,
		VoucherCode:   "LAST1",
	})
	require.Error(t, err)
	assert.Equal(t, 400, HTTPStatus(err))
	stores.carts.AssertNotCalled(t, "MarkCheckedOut", mock.Anything, mock.Anything)
}

func TestCheckoutShippingQuoteFailureAborts(t *testing.T) {
	stores := newMockTxStores()
	svc := newCheckoutService(stores, &stubQuoter{err: errors.New("ghn down")}, &recordingNotifier{})

	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(openCart(cartItem(1, 100_000, 1, 200)), nil)

	_, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: domain.PaymentMethodCOD})
	require.Error(t, err)
	assert.Equal(t, 502, HTTPStatus(err))
	stores.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	stores.carts.AssertNotCalled(t, "MarkCheckedOut", mock.Anything, mock.Anything)
}

func TestCheckoutEmptyCart(t *testing.T) {
	stores := newMockTxStores()
	svc := newCheckoutService(stores, &stubQuoter{fee: 35000}, &recordingNotifier{})

	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(nil, repository.ErrNotFound)

	_, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: domain.PaymentMethodCOD})
	require.Error(t, err)
	assert.Equal(t, 400, HTTPStatus(err))
}

func TestCheckoutCartAlreadyCheckedOut(t *testing.T) {
	stores := newMockTxStores()
	notifier := &recordingNotifier{}
	svc := newCheckoutService(stores, &stubQuoter{fee: 35000}, notifier)

	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(openCart(cartItem(1, 100_000, 1, 200)), nil)
	stores.products.On("DecrementStock", mock.Anything, uint(1), 1).Return(true, nil)
	stores.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	stores.carts.On("MarkCheckedOut", mock.Anything, uint(3)).Return(false, nil)

	_, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: domain.PaymentMethodCOD})
	require.Error(t, err)
	assert.Equal(t, 409, HTTPStatus(err))
	assert.Empty(t, notifier.orderConfirmed)
}

func TestCheckoutQROpensPaymentLink(t *testing.T) {
	stores := newMockTxStores()
	svc := newCheckoutService(stores, &stubQuoter{fee: 35000}, &recordingNotifier{})

	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(openCart(cartItem(1, 1_000_000, 1, 200)), nil)
	stores.products.On("DecrementStock", mock.Anything, uint(1), 1).Return(true, nil)
	stores.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	stores.payments.On("FindCreatedByReference", mock.Anything, domain.PaymentKindOrder, uint(1)).Return(nil, repository.ErrNotFound)
	stores.payments.On("Create", mock.Anything, mock.AnythingOfType("*models.Payment")).Return(nil)
	stores.carts.On("MarkCheckedOut", mock.Anything, uint(3)).Return(true, nil)

	out, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: domain.PaymentMethodQR})
	require.NoError(t, err)
	assert.NotEmpty(t, out.CheckoutURL)
	assert.NotEmpty(t, out.QRCode)

	p := stores.payments.Calls[1].Arguments.Get(1).(*models.Payment)
	assert.Equal(t, domain.PaymentKindOrder, p.Kind)
	assert.Equal(t, out.FinalAmount, p.Amount)
	assert.Equal(t, domain.PaymentStatusCreated, p.Status)
	// trailing digit puts order codes in their own code space
	assert.Equal(t, int64(domain.OrderCodeDigitOrder), p.GatewayOrderCode%10)
}

func TestCheckoutQRReusesCreatedAttempt(t *testing.T) {
	stores := newMockTxStores()
	svc := newCheckoutService(stores, &stubQuoter{fee: 35000}, &recordingNotifier{})

	linkID := "existing-link"
	stores.carts.On("FindOpenByUserID", mock.Anything, uint(7)).Return(openCart(cartItem(1, 1_000_000, 1, 200)), nil)
	stores.products.On("DecrementStock", mock.Anything, uint(1), 1).Return(true, nil)
	stores.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	stores.payments.On("FindCreatedByReference", mock.Anything, domain.PaymentKindOrder, uint(1)).Return(&models.Payment{
		ID: 41, Kind: domain.PaymentKindOrder, ReferenceID: 1,
		Amount: 1_035_000, Status: domain.PaymentStatusCreated,
		GatewayLinkID: &linkID, CheckoutURL: "https://pay/old", QRCode: "old-qr",
	}, nil)
	stores.carts.On("MarkCheckedOut", mock.Anything, uint(3)).Return(true, nil)

	out, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: domain.PaymentMethodQR})
	require.NoError(t, err)
	assert.Equal(t, "https://pay/old", out.CheckoutURL)
	stores.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckoutRejectsBadPaymentMethod(t *testing.T) {
	svc := newCheckoutService(newMockTxStores(), &stubQuoter{fee: 35000}, &recordingNotifier{})
	_, err := svc.Checkout(context.Background(), 7, CheckoutInput{PaymentMethod: "PAYPAL"})
	require.Error(t, err)
	assert.Equal(t, 400, HTTPStatus(err))
}
