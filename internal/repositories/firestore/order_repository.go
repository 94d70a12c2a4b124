package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/petalworks/api/internal/domain"
	pfirestore "github.com/petalworks/api/internal/platform/firestore"
	"github.com/petalworks/api/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists order documents in Firestore. Writes replace the
// whole document; the order surface runs last-writer-wins.
type OrderRepository struct {
	base *pfirestore.BaseRepository[domain.Order]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository: firestore provider is required")
	}

	encoder := func(ctx context.Context, value domain.Order) (any, error) {
		return encodeOrderDocument(value), nil
	}
	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.Order, error) {
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Order{}, err
		}
		doc.ID = snap.Ref.ID
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = snap.UpdateTime
		}
		return decodeOrderDocument(doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Order](provider, ordersCollection, encoder, decoder)
	return &OrderRepository{base: base}, nil
}

// Insert stores a new order document, failing if the ID already exists.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	order.ID = strings.TrimSpace(order.ID)
	if order.ID == "" {
		return errors.New("order repository: id is required")
	}

	docRef, err := r.base.DocumentRef(ctx, order.ID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// Update replaces the stored order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	order.ID = strings.TrimSpace(order.ID)
	if order.ID == "" {
		return errors.New("order repository: id is required")
	}
	if _, err := r.base.Set(ctx, order.ID, order); err != nil {
		return err
	}
	return nil
}

// FindByID loads an order by its identifier.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: id is required")
	}
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data, nil
}

// Delete removes the order document. Missing documents surface as not found.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errors.New("order repository: id is required")
	}
	return r.base.Delete(ctx, orderID, firestore.Exists)
}

// ListRecent returns the newest orders first, bounded by the query limit.
func (r *OrderRepository) ListRecent(ctx context.Context, query repositories.OrderListQuery) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data)
	}
	return orders, nil
}

func encodeOrderDocument(order domain.Order) orderDocument {
	activity := make([]activityEntryDocument, 0, len(order.Activity))
	for _, entry := range order.Activity {
		activity = append(activity, activityEntryDocument{
			Timestamp: entry.Timestamp.UTC(),
			Kind:      entry.Kind,
			Message:   entry.Message,
		})
	}

	return orderDocument{
		CustomerID:        strings.TrimSpace(order.CustomerID),
		BuyerName:         order.BuyerName,
		PhoneNumber:       order.PhoneNumber,
		Address:           order.Address,
		ProductID:         order.ProductID,
		ProductName:       order.ProductName,
		ProductPrice:      order.ProductPrice,
		Status:            string(order.Status),
		PaymentMethod:     string(order.PaymentMethod),
		DownPaymentAmount: order.DownPaymentAmount,
		AdditionalPayment: order.AdditionalPayment,
		DeliveryPrice:     order.DeliveryPrice,
		TotalAmount:       order.TotalAmount,
		PaymentStatus:     string(order.PaymentStatus),
		DeliveryAt:        cloneTime(order.DeliveryAt),
		Activity:          activity,
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
	}
}

func decodeOrderDocument(doc orderDocument) domain.Order {
	activity := make([]domain.ActivityEntry, 0, len(doc.Activity))
	for _, entry := range doc.Activity {
		activity = append(activity, domain.ActivityEntry{
			Timestamp: entry.Timestamp.UTC(),
			Kind:      entry.Kind,
			Message:   entry.Message,
		})
	}

	return domain.Order{
		ID:                doc.ID,
		CustomerID:        doc.CustomerID,
		BuyerName:         doc.BuyerName,
		PhoneNumber:       doc.PhoneNumber,
		Address:           doc.Address,
		ProductID:         doc.ProductID,
		ProductName:       doc.ProductName,
		ProductPrice:      doc.ProductPrice,
		Status:            domain.OrderStatus(doc.Status),
		PaymentMethod:     domain.PaymentMethod(doc.PaymentMethod),
		DownPaymentAmount: doc.DownPaymentAmount,
		AdditionalPayment: doc.AdditionalPayment,
		DeliveryPrice:     doc.DeliveryPrice,
		TotalAmount:       doc.TotalAmount,
		PaymentStatus:     domain.PaymentStatus(doc.PaymentStatus),
		DeliveryAt:        cloneTime(doc.DeliveryAt),
		Activity:          activity,
		CreatedAt:         doc.CreatedAt.UTC(),
		UpdatedAt:         doc.UpdatedAt.UTC(),
	}
}

type orderDocument struct {
	ID                string                  `firestore:"-"`
	CustomerID        string                  `firestore:"customerId,omitempty"`
	BuyerName         string                  `firestore:"buyerName"`
	PhoneNumber       string                  `firestore:"phoneNumber"`
	Address           string                  `firestore:"address"`
	ProductID         string                  `firestore:"productId"`
	ProductName       string                  `firestore:"productName"`
	ProductPrice      int64                   `firestore:"productPrice"`
	Status            string                  `firestore:"orderStatus"`
	PaymentMethod     string                  `firestore:"paymentMethod,omitempty"`
	DownPaymentAmount int64                   `firestore:"downPaymentAmount"`
	AdditionalPayment int64                   `firestore:"additionalPayment"`
	DeliveryPrice     int64                   `firestore:"deliveryPrice"`
	TotalAmount       int64                   `firestore:"totalAmount"`
	PaymentStatus     string                  `firestore:"paymentStatus"`
	DeliveryAt        *time.Time              `firestore:"deliveryAt,omitempty"`
	Activity          []activityEntryDocument `firestore:"activity"`
	CreatedAt         time.Time               `firestore:"createdAt"`
	UpdatedAt         time.Time               `firestore:"updatedAt"`
}

type activityEntryDocument struct {
	Timestamp time.Time `firestore:"timestamp"`
	Kind      string    `firestore:"kind"`
	Message   string    `firestore:"message"`
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	cloned := value.UTC()
	return &cloned
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
