package repositories

import (
	"context"

	domain "github.com/petalworks/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderRepository persists order documents. Writes replace the whole document;
// the caller owns conflict semantics (last writer wins).
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	ListRecent(ctx context.Context, query OrderListQuery) ([]domain.Order, error)
}

// OrderListQuery bounds the recent-orders window returned by ListRecent.
// Results are ordered by creation time, newest first.
type OrderListQuery struct {
	Limit int
}

// CustomerRepository persists the customer address book.
type CustomerRepository interface {
	Insert(ctx context.Context, customer domain.Customer) error
	Update(ctx context.Context, customer domain.Customer) error
	FindByID(ctx context.Context, customerID string) (domain.Customer, error)
	Delete(ctx context.Context, customerID string) error
	ListRecent(ctx context.Context, limit int) ([]domain.Customer, error)
}

// BouquetRepository persists catalog bouquets.
type BouquetRepository interface {
	Insert(ctx context.Context, bouquet domain.Bouquet) error
	Update(ctx context.Context, bouquet domain.Bouquet) error
	FindByID(ctx context.Context, bouquetID string) (domain.Bouquet, error)
	Delete(ctx context.Context, bouquetID string) error
	List(ctx context.Context, filter BouquetListFilter) ([]domain.Bouquet, error)
}

// BouquetListFilter narrows bouquet listings. An empty CollectionID matches
// every collection.
type BouquetListFilter struct {
	CollectionID string
	Limit        int
}

// CollectionRepository persists bouquet collections.
type CollectionRepository interface {
	Insert(ctx context.Context, collection domain.Collection) error
	FindByID(ctx context.Context, collectionID string) (domain.Collection, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Collection, error)
}
