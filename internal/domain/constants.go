package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	RentalStatusPending   = "PENDING"
	RentalStatusActive    = "ACTIVE"
	RentalStatusCompleted = "COMPLETED"
	RentalStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusCreated   = "CREATED"
	PaymentStatusPaid      = "PAID"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCancelled = "CANCELLED"
)

const (
	PaymentKindOrder  = "ORDER"
	PaymentKindRental = "RENTAL"
)

const (
	PaymentMethodCOD = "COD"
	PaymentMethodQR  = "QR"
)

const (
	VoucherTypeFixed    = "FIXED"
	VoucherTypePercent  = "PERCENT"
	VoucherTypeShipping = "SHIPPING"
)

// Description prefixes stamped into gateway payment descriptions. The
// webhook reconciler reads them only as a fallback when a legacy ledger row
// is missing its kind.
const (
	DescPrefixOrder  = "DH"
	DescPrefixRental = "TX"
)

// Order-code spaces on the gateway: codes end in a kind digit so order and
// rental attempts can never collide on the provider's numeric code.
const (
	OrderCodeDigitOrder  = 1
	OrderCodeDigitRental = 2
)

// Shipment weight bounds in grams for the shipping-fee quote.
const (
	MinShipmentWeight     = 50
	MaxShipmentWeight     = 30000
	DefaultItemWeight     = 200
	DefaultShipmentLength = 20
	DefaultShipmentWidth  = 15
	DefaultShipmentHeight = 10
)
