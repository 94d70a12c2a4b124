package services

import (
	"context"
	"time"

	domain "github.com/petalworks/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order         = domain.Order
	OrderStatus   = domain.OrderStatus
	PaymentStatus = domain.PaymentStatus
	PaymentMethod = domain.PaymentMethod
	ActivityEntry = domain.ActivityEntry
	Customer      = domain.Customer
	Bouquet       = domain.Bouquet
	Collection    = domain.Collection
	HealthReport  = domain.HealthReport
)

// OrderService owns the order lifecycle: creation from inquiries, partial
// updates, status progression, deletion, and the recent-orders listing.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error)
	UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error)
	AdvanceOrderStatus(ctx context.Context, orderID string) (Order, error)
	DeleteOrder(ctx context.Context, orderID string) (Order, error)
}

// CustomerService manages the customer address book orders link against.
type CustomerService interface {
	CreateCustomer(ctx context.Context, cmd CreateCustomerCommand) (Customer, error)
	GetCustomer(ctx context.Context, customerID string) (Customer, error)
	ListCustomers(ctx context.Context, limit int) ([]Customer, error)
	UpdateCustomer(ctx context.Context, cmd UpdateCustomerCommand) (Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error
}

// CatalogService manages bouquets and the collections grouping them.
type CatalogService interface {
	CreateBouquet(ctx context.Context, cmd CreateBouquetCommand) (Bouquet, error)
	GetBouquet(ctx context.Context, bouquetID string) (Bouquet, error)
	ListBouquets(ctx context.Context, filter BouquetListFilter) ([]Bouquet, error)
	UpdateBouquet(ctx context.Context, cmd UpdateBouquetCommand) (Bouquet, error)
	DeleteBouquet(ctx context.Context, bouquetID string) error
	CreateCollection(ctx context.Context, cmd CreateCollectionCommand) (Collection, error)
	GetCollection(ctx context.Context, collectionID string) (Collection, error)
	ListCollections(ctx context.Context, limit int) ([]Collection, error)
}

// CreateOrderCommand carries the inputs for recording a new order. Either
// CustomerID or the direct buyer fields identify the buyer; ProductID is
// mandatory and ProductName/ProductPrice act as fallbacks when the catalog
// lookup fails.
type CreateOrderCommand struct {
	CustomerID        string
	BuyerName         string
	PhoneNumber       string
	Address           string
	ProductID         string
	ProductName       string
	ProductPrice      float64
	Status            string
	PaymentMethod     string
	DownPaymentAmount float64
	AdditionalPayment float64
	DeliveryPrice     float64
	DeliveryAt        string
}

// UpdateOrderCommand is a partial patch: nil fields are left untouched.
// CustomerID set to an empty string unlinks the order without rewriting the
// buyer snapshot; DeliveryAt set to an empty string clears the delivery time.
type UpdateOrderCommand struct {
	OrderID           string
	CustomerID        *string
	BuyerName         *string
	PhoneNumber       *string
	Address           *string
	ProductID         *string
	ProductName       *string
	ProductPrice      *float64
	Status            *string
	PaymentMethod     *string
	DownPaymentAmount *float64
	AdditionalPayment *float64
	DeliveryPrice     *float64
	DeliveryAt        *string
}

// OrderListFilter narrows the recent-orders listing. FilterText matches buyer
// name or phone number as a case-insensitive literal substring.
type OrderListFilter struct {
	FilterText string
	Limit      int
}

// OrderListLimits bounds the listing window.
type OrderListLimits struct {
	Default int
	Max     int
}

// CreateCustomerCommand carries inputs for a new customer record.
type CreateCustomerCommand struct {
	Name    string
	Phone   string
	Address string
	Notes   string
}

// UpdateCustomerCommand is a partial patch over a stored customer.
type UpdateCustomerCommand struct {
	CustomerID string
	Name       *string
	Phone      *string
	Address    *string
	Notes      *string
}

// CreateBouquetCommand carries inputs for a new catalog bouquet.
type CreateBouquetCommand struct {
	Name         string
	Price        float64
	Description  string
	CollectionID string
	Active       *bool
}

// UpdateBouquetCommand is a partial patch over a stored bouquet.
type UpdateBouquetCommand struct {
	BouquetID    string
	Name         *string
	Price        *float64
	Description  *string
	CollectionID *string
	Active       *bool
}

// BouquetListFilter narrows bouquet listings.
type BouquetListFilter struct {
	CollectionID string
	Limit        int
}

// CreateCollectionCommand carries inputs for a new bouquet collection.
type CreateCollectionCommand struct {
	Name string
	Slug string
}

// OrderEventPublisher publishes order lifecycle events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order lifecycle events.
type OrderEvent struct {
	Name          string    `json:"event"`
	OrderID       string    `json:"orderId"`
	Status        string    `json:"orderStatus,omitempty"`
	PaymentStatus string    `json:"paymentStatus,omitempty"`
	TotalAmount   int64     `json:"totalAmount"`
	OccurredAt    time.Time `json:"occurredAt"`
}
