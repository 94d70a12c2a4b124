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

const bouquetsCollection = "bouquets"

// BouquetRepository persists catalog bouquets in Firestore.
type BouquetRepository struct {
	base *pfirestore.BaseRepository[domain.Bouquet]
}

// NewBouquetRepository constructs a Firestore-backed bouquet repository.
func NewBouquetRepository(provider *pfirestore.Provider) (*BouquetRepository, error) {
	if provider == nil {
		return nil, errors.New("bouquet repository: firestore provider is required")
	}

	encoder := func(ctx context.Context, value domain.Bouquet) (any, error) {
		return encodeBouquetDocument(value), nil
	}
	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.Bouquet, error) {
		var doc bouquetDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Bouquet{}, err
		}
		doc.ID = snap.Ref.ID
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = snap.UpdateTime
		}
		return decodeBouquetDocument(doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Bouquet](provider, bouquetsCollection, encoder, decoder)
	return &BouquetRepository{base: base}, nil
}

// Insert stores a new bouquet document, failing if the ID already exists.
func (r *BouquetRepository) Insert(ctx context.Context, bouquet domain.Bouquet) error {
	if r == nil || r.base == nil {
		return errors.New("bouquet repository not initialised")
	}
	bouquet.ID = strings.TrimSpace(bouquet.ID)
	if bouquet.ID == "" {
		return errors.New("bouquet repository: id is required")
	}

	docRef, err := r.base.DocumentRef(ctx, bouquet.ID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeBouquetDocument(bouquet)); err != nil {
		return pfirestore.WrapError("bouquets.insert", err)
	}
	return nil
}

// Update replaces the stored bouquet document.
func (r *BouquetRepository) Update(ctx context.Context, bouquet domain.Bouquet) error {
	if r == nil || r.base == nil {
		return errors.New("bouquet repository not initialised")
	}
	bouquet.ID = strings.TrimSpace(bouquet.ID)
	if bouquet.ID == "" {
		return errors.New("bouquet repository: id is required")
	}
	if _, err := r.base.Set(ctx, bouquet.ID, bouquet); err != nil {
		return err
	}
	return nil
}

// FindByID loads a bouquet by its identifier.
func (r *BouquetRepository) FindByID(ctx context.Context, bouquetID string) (domain.Bouquet, error) {
	if r == nil || r.base == nil {
		return domain.Bouquet{}, errors.New("bouquet repository not initialised")
	}
	bouquetID = strings.TrimSpace(bouquetID)
	if bouquetID == "" {
		return domain.Bouquet{}, errors.New("bouquet repository: id is required")
	}
	doc, err := r.base.Get(ctx, bouquetID)
	if err != nil {
		return domain.Bouquet{}, err
	}
	return doc.Data, nil
}

// Delete removes the bouquet document.
func (r *BouquetRepository) Delete(ctx context.Context, bouquetID string) error {
	if r == nil || r.base == nil {
		return errors.New("bouquet repository not initialised")
	}
	bouquetID = strings.TrimSpace(bouquetID)
	if bouquetID == "" {
		return errors.New("bouquet repository: id is required")
	}
	return r.base.Delete(ctx, bouquetID, firestore.Exists)
}

// List returns bouquets newest first, optionally narrowed to a collection.
func (r *BouquetRepository) List(ctx context.Context, filter repositories.BouquetListFilter) ([]domain.Bouquet, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("bouquet repository not initialised")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	collectionID := strings.TrimSpace(filter.CollectionID)

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if collectionID != "" {
			q = q.Where("collectionId", "==", collectionID)
		}
		return q.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	bouquets := make([]domain.Bouquet, 0, len(docs))
	for _, doc := range docs {
		bouquets = append(bouquets, doc.Data)
	}
	return bouquets, nil
}

func encodeBouquetDocument(bouquet domain.Bouquet) bouquetDocument {
	return bouquetDocument{
		Name:         bouquet.Name,
		Price:        bouquet.Price,
		Description:  bouquet.Description,
		CollectionID: strings.TrimSpace(bouquet.CollectionID),
		Active:       bouquet.Active,
		CreatedAt:    bouquet.CreatedAt.UTC(),
		UpdatedAt:    bouquet.UpdatedAt.UTC(),
	}
}

func decodeBouquetDocument(doc bouquetDocument) domain.Bouquet {
	return domain.Bouquet{
		ID:           doc.ID,
		Name:         doc.Name,
		Price:        doc.Price,
		Description:  doc.Description,
		CollectionID: doc.CollectionID,
		Active:       doc.Active,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}
}

type bouquetDocument struct {
	ID           string    `firestore:"-"`
	Name         string    `firestore:"name"`
	Price        int64     `firestore:"price"`
	Description  string    `firestore:"description,omitempty"`
	CollectionID string    `firestore:"collectionId,omitempty"`
	Active       bool      `firestore:"active"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

var _ repositories.BouquetRepository = (*BouquetRepository)(nil)
