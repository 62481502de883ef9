package repository

import (
	"context"
	"errors"

	"shoprent/internal/models"
)

// ErrNotFound is returned by all stores for missing rows so services never
// have to import gorm to test for it.
var ErrNotFound = errors.New("record not found")

type CartStore interface {
	// GetOrCreateOpen returns the user's single open cart, creating it when
	// absent. Concurrent callers are serialized by the unique open-marker
	// index, not by application locking.
	GetOrCreateOpen(ctx context.Context, userID uint) (*models.Cart, error)
	FindOpenByUserID(ctx context.Context, userID uint) (*models.Cart, error)
	UpsertItem(ctx context.Context, cartID uint, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, cartID, itemID uint, quantity int) error
	RemoveItem(ctx context.Context, cartID, itemID uint) error
	// MarkCheckedOut flips the cart exactly once; reports false when the
	// cart was already checked out.
	MarkCheckedOut(ctx context.Context, cartID uint) (bool, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	// CompleteIfOpen moves PENDING/PROCESSING to COMPLETED and reports
	// whether this call performed the move. A false return with no error
	// means someone else already completed (or cancelled) the order.
	CompleteIfOpen(ctx context.Context, id uint) (bool, error)
}

type VoucherStore interface {
	Create(ctx context.Context, v *models.Voucher) error
	List(ctx context.Context, limit, offset int) ([]models.Voucher, error)
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	// ConsumeUsage increments usage and flips validity off when exhausted,
	// guarded by the usage cap in the WHERE clause. False = already used up.
	ConsumeUsage(ctx context.Context, id uint) (bool, error)
}

type RentalStore interface {
	Create(ctx context.Context, r *models.Rental) error
	FindByID(ctx context.Context, id uint) (*models.Rental, error)
	ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Rental, error)
	// ActivateIfPending moves PENDING to ACTIVE; false when the rental had
	// already left PENDING.
	ActivateIfPending(ctx context.Context, id uint) (bool, error)
	SaveSettlement(ctx context.Context, r *models.Rental) error
}

type RentalPlanStore interface {
	FindByProductID(ctx context.Context, productID uint) (*models.RentalPlan, error)
	Create(ctx context.Context, plan *models.RentalPlan) error
	Update(ctx context.Context, plan *models.RentalPlan) error
}

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	Update(ctx context.Context, p *models.Payment) error
	// FindCreatedByReference returns the reusable CREATED attempt for a
	// business entity, if one exists (retry idempotency).
	FindCreatedByReference(ctx context.Context, kind string, referenceID uint) (*models.Payment, error)
	FindByLinkID(ctx context.Context, linkID string) (*models.Payment, error)
	FindByOrderCode(ctx context.Context, orderCode int64) (*models.Payment, error)
	FindLatestByReference(ctx context.Context, kind string, referenceID uint) (*models.Payment, error)
	// MarkPaid / MarkFailed apply the ledger transition with the current
	// status re-checked in the WHERE clause. False = no-op (already moved).
	MarkPaid(ctx context.Context, id uint) (bool, error)
	MarkFailed(ctx context.Context, id uint) (bool, error)
}

type ProductStore interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, categoryID uint, limit, offset int) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	// DecrementStock takes qty units if available; false when short.
	DecrementStock(ctx context.Context, id uint, qty int) (bool, error)
}

// TxStores is the set of stores bound to one database transaction.
type TxStores interface {
	Carts() CartStore
	Orders() OrderStore
	Vouchers() VoucherStore
	Rentals() RentalStore
	RentalPlans() RentalPlanStore
	Payments() PaymentStore
	Products() ProductStore
}

// TxManager runs fn inside a single transaction; any error rolls the whole
// thing back. Services never see gorm's transaction API directly.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(s TxStores) error) error
}
