package domain

import (
	"time"
)

// OrderStatus tracks how far an order has progressed from first contact to
// handover. Statuses form a canonical sequence but any status may be assigned
// directly; the sequence only matters when advancing step by step.
type OrderStatus string

const (
	// OrderStatusInquiry marks an initial customer inquiry that has not been confirmed.
	OrderStatusInquiry OrderStatus = "inquiry"
	// OrderStatusOrdered marks a confirmed order awaiting preparation.
	OrderStatusOrdered OrderStatus = "ordered"
	// OrderStatusProcessing marks an order currently being arranged.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusAwaitingCourier marks a finished arrangement waiting for pickup.
	OrderStatusAwaitingCourier OrderStatus = "awaiting-courier"
	// OrderStatusInDelivery marks an order handed to the courier.
	OrderStatusInDelivery OrderStatus = "in-delivery"
	// OrderStatusDelivered marks an order received by the buyer.
	OrderStatusDelivered OrderStatus = "delivered"
)

// orderStatusSequence is the canonical progression used when advancing an
// order one step at a time.
var orderStatusSequence = []OrderStatus{
	OrderStatusInquiry,
	OrderStatusOrdered,
	OrderStatusProcessing,
	OrderStatusAwaitingCourier,
	OrderStatusInDelivery,
	OrderStatusDelivered,
}

// ValidOrderStatus reports whether the label is one of the known statuses.
func ValidOrderStatus(status OrderStatus) bool {
	for _, candidate := range orderStatusSequence {
		if candidate == status {
			return true
		}
	}
	return false
}

// NextOrderStatus returns the status one step further along the canonical
// sequence. Delivered is terminal and returns itself.
func NextOrderStatus(status OrderStatus) OrderStatus {
	for i, candidate := range orderStatusSequence {
		if candidate != status {
			continue
		}
		if i+1 < len(orderStatusSequence) {
			return orderStatusSequence[i+1]
		}
		return candidate
	}
	return status
}

// PaymentMethod identifies how the buyer pays. Empty means not yet chosen.
type PaymentMethod string

const (
	// PaymentMethodCash indicates payment in cash at the shop.
	PaymentMethodCash PaymentMethod = "cash"
	// PaymentMethodBankTransfer indicates payment by bank transfer.
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
	// PaymentMethodQRIS indicates payment through a QRIS code.
	PaymentMethodQRIS PaymentMethod = "qris"
	// PaymentMethodEWallet indicates payment through an e-wallet app.
	PaymentMethodEWallet PaymentMethod = "e-wallet"
	// PaymentMethodCOD indicates cash on delivery.
	PaymentMethodCOD PaymentMethod = "cod"
)

// ValidPaymentMethod reports whether the label is a known method or empty.
func ValidPaymentMethod(method PaymentMethod) bool {
	switch method {
	case "", PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodQRIS, PaymentMethodEWallet, PaymentMethodCOD:
		return true
	default:
		return false
	}
}

// ActivityEntry records one event in an order's history.
type ActivityEntry struct {
	Timestamp time.Time
	Kind      string
	Message   string
}

// MaxActivityEntries caps the per-order activity log; older entries are
// dropped once the cap is reached.
const MaxActivityEntries = 50

// Order is the central record of the storefront: who is buying, what they are
// buying, how far along the order is, and how much has been paid. Buyer and
// product fields are snapshots taken at link/selection time and do not follow
// later edits to the referenced customer or bouquet.
type Order struct {
	ID                string
	CustomerID        string
	BuyerName         string
	PhoneNumber       string
	Address           string
	ProductID         string
	ProductName       string
	ProductPrice      int64
	Status            OrderStatus
	PaymentMethod     PaymentMethod
	DownPaymentAmount int64
	AdditionalPayment int64
	DeliveryPrice     int64
	TotalAmount       int64
	PaymentStatus     PaymentStatus
	DeliveryAt        *time.Time
	Activity          []ActivityEntry
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Linked reports whether the order currently references a stored customer.
func (o Order) Linked() bool {
	return o.CustomerID != ""
}

// Customer is an address-book entry staff link orders against.
type Customer struct {
	ID        string
	Name      string
	Phone     string
	Address   string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bouquet is a catalog product orders snapshot their name and price from.
type Bouquet struct {
	ID           string
	Name         string
	Price        int64
	Description  string
	CollectionID string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Collection groups bouquets for browsing.
type Collection struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
