package service

import (
	"context"
	"errors"

	"shoprent/internal/models"
	"shoprent/internal/repository"
	"shoprent/pkg/shipping"

	"github.com/stretchr/testify/mock"
)

// mockTxManager hands the callback a fixed set of store mocks. A returned
// error stands in for a rollback; the mocks themselves keep whatever state
// the callback wrote, so tests assert on the calls, not the state.
type mockTxManager struct {
	stores *mockTxStores
}

func (m *mockTxManager) WithinTx(ctx context.Context, fn func(s repository.TxStores) error) error {
	return fn(m.stores)
}

type mockTxStores struct {
	carts    *mockCartStore
	orders   *mockOrderStore
	vouchers *mockVoucherStore
	rentals  *mockRentalStore
	plans    *mockRentalPlanStore
	payments *mockPaymentStore
	products *mockProductStore
}

func newMockTxStores() *mockTxStores {
	return &mockTxStores{
		carts:    &mockCartStore{},
		orders:   &mockOrderStore{},
		vouchers: &mockVoucherStore{},
		rentals:  &mockRentalStore{},
		plans:    &mockRentalPlanStore{},
		payments: &mockPaymentStore{},
		products: &mockProductStore{},
	}
}

func (m *mockTxStores) Carts() repository.CartStore            { return m.carts }
func (m *mockTxStores) Orders() repository.OrderStore          { return m.orders }
func (m *mockTxStores) Vouchers() repository.VoucherStore      { return m.vouchers }
func (m *mockTxStores) Rentals() repository.RentalStore        { return m.rentals }
func (m *mockTxStores) RentalPlans() repository.RentalPlanStore { return m.plans }
func (m *mockTxStores) Payments() repository.PaymentStore      { return m.payments }
func (m *mockTxStores) Products() repository.ProductStore      { return m.products }

type mockCartStore struct{ mock.Mock }

func (m *mockCartStore) GetOrCreateOpen(ctx context.Context, userID uint) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *mockCartStore) FindOpenByUserID(ctx context.Context, userID uint) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *mockCartStore) UpsertItem(ctx context.Context, cartID uint, item *models.CartItem) error {
	return m.Called(ctx, cartID, item).Error(0)
}

func (m *mockCartStore) UpdateItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) error {
	return m.Called(ctx, cartID, itemID, quantity).Error(0)
}

func (m *mockCartStore) RemoveItem(ctx context.Context, cartID, itemID uint) error {
	return m.Called(ctx, cartID, itemID).Error(0)
}

func (m *mockCartStore) MarkCheckedOut(ctx context.Context, cartID uint) (bool, error) {
	args := m.Called(ctx, cartID)
	return args.Bool(0), args.Error(1)
}

type mockOrderStore struct{ mock.Mock }

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil && order.ID == 0 {
		order.ID = 1
	}
	return args.Error(0)
}

func (m *mockOrderStore) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) UpdateStatus(ctx context.Context, id uint, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockOrderStore) CompleteIfOpen(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockVoucherStore struct{ mock.Mock }

func (m *mockVoucherStore) Create(ctx context.Context, v *models.Voucher) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockVoucherStore) List(ctx context.Context, limit, offset int) ([]models.Voucher, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Voucher), args.Error(1)
}

func (m *mockVoucherStore) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Voucher), args.Error(1)
}

func (m *mockVoucherStore) ConsumeUsage(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockRentalStore struct{ mock.Mock }

func (m *mockRentalStore) Create(ctx context.Context, r *models.Rental) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil && r.ID == 0 {
		r.ID = 1
	}
	return args.Error(0)
}

func (m *mockRentalStore) FindByID(ctx context.Context, id uint) (*models.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rental), args.Error(1)
}

func (m *mockRentalStore) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Rental, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Rental), args.Error(1)
}

func (m *mockRentalStore) ActivateIfPending(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockRentalStore) SaveSettlement(ctx context.Context, r *models.Rental) error {
	return m.Called(ctx, r).Error(0)
}

type mockRentalPlanStore struct{ mock.Mock }

func (m *mockRentalPlanStore) FindByProductID(ctx context.Context, productID uint) (*models.RentalPlan, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RentalPlan), args.Error(1)
}

func (m *mockRentalPlanStore) Create(ctx context.Context, plan *models.RentalPlan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *mockRentalPlanStore) Update(ctx context.Context, plan *models.RentalPlan) error {
	return m.Called(ctx, plan).Error(0)
}

type mockPaymentStore struct{ mock.Mock }

func (m *mockPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil && p.ID == 0 {
		p.ID = 1
	}
	return args.Error(0)
}

func (m *mockPaymentStore) Update(ctx context.Context, p *models.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPaymentStore) FindCreatedByReference(ctx context.Context, kind string, referenceID uint) (*models.Payment, error) {
	args := m.Called(ctx, kind, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) FindByLinkID(ctx context.Context, linkID string) (*models.Payment, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) FindByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error) {
	args := m.Called(ctx, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) FindLatestByReference(ctx context.Context, kind string, referenceID uint) (*models.Payment, error) {
	args := m.Called(ctx, kind, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentStore) MarkPaid(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentStore) MarkFailed(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockProductStore struct{ mock.Mock }

func (m *mockProductStore) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *mockProductStore) List(ctx context.Context, categoryID uint, limit, offset int) ([]models.Product, error) {
	args := m.Called(ctx, categoryID, limit, offset)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *mockProductStore) Create(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductStore) Update(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProductStore) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	args := m.Called(ctx, id, qty)
	return args.Bool(0), args.Error(1)
}

// recordingNotifier counts deliveries without testify ceremony; the tests
// only ever care whether a notification fired and with what amount.
type recordingNotifier struct {
	orderConfirmed []int64
	rentalBooked   []int64
	paymentPaid    []int64
}

func (n *recordingNotifier) OrderConfirmed(userID, orderID uint, finalAmount int64) {
	n.orderConfirmed = append(n.orderConfirmed, finalAmount)
}

func (n *recordingNotifier) RentalBooked(userID, rentalID uint, deposit int64) {
	n.rentalBooked = append(n.rentalBooked, deposit)
}

func (n *recordingNotifier) PaymentPaid(userID uint, kind string, referenceID uint, amount int64) {
	n.paymentPaid = append(n.paymentPaid, amount)
}

// stubQuoter returns a fixed fee, or the error when set.
type stubQuoter struct {
	fee   int64
	err   error
	calls int
	last  shipping.QuoteRequest
}

func (q *stubQuoter) Quote(ctx context.Context, req shipping.QuoteRequest) (int64, error) {
	q.calls++
	q.last = req
	if q.err != nil {
		return 0, q.err
	}
	return q.fee, nil
}

type stubUsers struct {
	user *models.User
}

func (s *stubUsers) GetByID(id uint) (*models.User, error) {
	if s.user == nil {
		return nil, errors.New("user not found")
	}
	return s.user, nil
}
