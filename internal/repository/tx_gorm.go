package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormTxStores struct {
	carts    *CartRepository
	orders   *OrderRepository
	vouchers *VoucherRepository
	rentals  *RentalRepository
	plans    *RentalPlanRepository
	payments *PaymentRepository
	products *ProductRepository
}

func (s *gormTxStores) Carts() CartStore             { return s.carts }
func (s *gormTxStores) Orders() OrderStore           { return s.orders }
func (s *gormTxStores) Vouchers() VoucherStore       { return s.vouchers }
func (s *gormTxStores) Rentals() RentalStore         { return s.rentals }
func (s *gormTxStores) RentalPlans() RentalPlanStore { return s.plans }
func (s *gormTxStores) Payments() PaymentStore       { return s.payments }
func (s *gormTxStores) Products() ProductStore       { return s.products }

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithinTx(ctx context.Context, fn func(s TxStores) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Stores are rebuilt over the transaction handle.
		return fn(&gormTxStores{
			carts:    NewCartRepository(tx),
			orders:   NewOrderRepository(tx),
			vouchers: NewVoucherRepository(tx),
			rentals:  NewRentalRepository(tx),
			plans:    NewRentalPlanRepository(tx),
			payments: NewPaymentRepository(tx),
			products: NewProductRepository(tx),
		})
	})
}
