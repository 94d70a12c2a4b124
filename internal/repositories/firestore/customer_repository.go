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

const customersCollection = "customers"

// CustomerRepository persists the customer address book in Firestore.
type CustomerRepository struct {
	base *pfirestore.BaseRepository[domain.Customer]
}

// NewCustomerRepository constructs a Firestore-backed customer repository.
func NewCustomerRepository(provider *pfirestore.Provider) (*CustomerRepository, error) {
	if provider == nil {
		return nil, errors.New("customer repository: firestore provider is required")
	}

	encoder := func(ctx context.Context, value domain.Customer) (any, error) {
		return encodeCustomerDocument(value), nil
	}
	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.Customer, error) {
		var doc customerDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Customer{}, err
		}
		doc.ID = snap.Ref.ID
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = snap.UpdateTime
		}
		return decodeCustomerDocument(doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Customer](provider, customersCollection, encoder, decoder)
	return &CustomerRepository{base: base}, nil
}

// Insert stores a new customer document, failing if the ID already exists.
func (r *CustomerRepository) Insert(ctx context.Context, customer domain.Customer) error {
	if r == nil || r.base == nil {
		return errors.New("customer repository not initialised")
	}
	customer.ID = strings.TrimSpace(customer.ID)
	if customer.ID == "" {
		return errors.New("customer repository: id is required")
	}

	docRef, err := r.base.DocumentRef(ctx, customer.ID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeCustomerDocument(customer)); err != nil {
		return pfirestore.WrapError("customers.insert", err)
	}
	return nil
}

// Update replaces the stored customer document.
func (r *CustomerRepository) Update(ctx context.Context, customer domain.Customer) error {
	if r == nil || r.base == nil {
		return errors.New("customer repository not initialised")
	}
	customer.ID = strings.TrimSpace(customer.ID)
	if customer.ID == "" {
		return errors.New("customer repository: id is required")
	}
	if _, err := r.base.Set(ctx, customer.ID, customer); err != nil {
		return err
	}
	return nil
}

// FindByID loads a customer by its identifier.
func (r *CustomerRepository) FindByID(ctx context.Context, customerID string) (domain.Customer, error) {
	if r == nil || r.base == nil {
		return domain.Customer{}, errors.New("customer repository not initialised")
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.Customer{}, errors.New("customer repository: id is required")
	}
	doc, err := r.base.Get(ctx, customerID)
	if err != nil {
		return domain.Customer{}, err
	}
	return doc.Data, nil
}

// Delete removes the customer document.
func (r *CustomerRepository) Delete(ctx context.Context, customerID string) error {
	if r == nil || r.base == nil {
		return errors.New("customer repository not initialised")
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return errors.New("customer repository: id is required")
	}
	return r.base.Delete(ctx, customerID, firestore.Exists)
}

// ListRecent returns the newest customers first.
func (r *CustomerRepository) ListRecent(ctx context.Context, limit int) ([]domain.Customer, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("customer repository not initialised")
	}
	if limit <= 0 {
		limit = 100
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(docs))
	for _, doc := range docs {
		customers = append(customers, doc.Data)
	}
	return customers, nil
}

func encodeCustomerDocument(customer domain.Customer) customerDocument {
	return customerDocument{
		Name:      customer.Name,
		Phone:     customer.Phone,
		Address:   customer.Address,
		Notes:     customer.Notes,
		CreatedAt: customer.CreatedAt.UTC(),
		UpdatedAt: customer.UpdatedAt.UTC(),
	}
}

func decodeCustomerDocument(doc customerDocument) domain.Customer {
	return domain.Customer{
		ID:        doc.ID,
		Name:      doc.Name,
		Phone:     doc.Phone,
		Address:   doc.Address,
		Notes:     doc.Notes,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

type customerDocument struct {
	ID        string    `firestore:"-"`
	Name      string    `firestore:"name"`
	Phone     string    `firestore:"phone"`
	Address   string    `firestore:"address"`
	Notes     string    `firestore:"notes,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)
