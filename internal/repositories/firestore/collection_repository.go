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

const collectionsCollection = "collections"

// CollectionRepository persists bouquet collections in Firestore.
type CollectionRepository struct {
	base *pfirestore.BaseRepository[domain.Collection]
}

// NewCollectionRepository constructs a Firestore-backed collection repository.
func NewCollectionRepository(provider *pfirestore.Provider) (*CollectionRepository, error) {
	if provider == nil {
		return nil, errors.New("collection repository: firestore provider is required")
	}

	encoder := func(ctx context.Context, value domain.Collection) (any, error) {
		return encodeCollectionDocument(value), nil
	}
	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.Collection, error) {
		var doc collectionDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Collection{}, err
		}
		doc.ID = snap.Ref.ID
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = snap.CreateTime
		}
		if doc.UpdatedAt.IsZero() {
			doc.UpdatedAt = snap.UpdateTime
		}
		return decodeCollectionDocument(doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Collection](provider, collectionsCollection, encoder, decoder)
	return &CollectionRepository{base: base}, nil
}

// Insert stores a new collection document, failing if the ID already exists.
func (r *CollectionRepository) Insert(ctx context.Context, collection domain.Collection) error {
	if r == nil || r.base == nil {
		return errors.New("collection repository not initialised")
	}
	collection.ID = strings.TrimSpace(collection.ID)
	if collection.ID == "" {
		return errors.New("collection repository: id is required")
	}

	docRef, err := r.base.DocumentRef(ctx, collection.ID)
	if err != nil {
		return err
	}
	if _, err := docRef.Create(ctx, encodeCollectionDocument(collection)); err != nil {
		return pfirestore.WrapError("collections.insert", err)
	}
	return nil
}

// FindByID loads a collection by its identifier.
func (r *CollectionRepository) FindByID(ctx context.Context, collectionID string) (domain.Collection, error) {
	if r == nil || r.base == nil {
		return domain.Collection{}, errors.New("collection repository not initialised")
	}
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return domain.Collection{}, errors.New("collection repository: id is required")
	}
	doc, err := r.base.Get(ctx, collectionID)
	if err != nil {
		return domain.Collection{}, err
	}
	return doc.Data, nil
}

// ListRecent returns the newest collections first.
func (r *CollectionRepository) ListRecent(ctx context.Context, limit int) ([]domain.Collection, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("collection repository not initialised")
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

	collections := make([]domain.Collection, 0, len(docs))
	for _, doc := range docs {
		collections = append(collections, doc.Data)
	}
	return collections, nil
}

func encodeCollectionDocument(collection domain.Collection) collectionDocument {
	return collectionDocument{
		Name:      collection.Name,
		Slug:      strings.TrimSpace(collection.Slug),
		CreatedAt: collection.CreatedAt.UTC(),
		UpdatedAt: collection.UpdatedAt.UTC(),
	}
}

func decodeCollectionDocument(doc collectionDocument) domain.Collection {
	return domain.Collection{
		ID:        doc.ID,
		Name:      doc.Name,
		Slug:      doc.Slug,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

type collectionDocument struct {
	ID        string    `firestore:"-"`
	Name      string    `firestore:"name"`
	Slug      string    `firestore:"slug,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

var _ repositories.CollectionRepository = (*CollectionRepository)(nil)
