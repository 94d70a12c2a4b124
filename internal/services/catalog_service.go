package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/petalworks/api/internal/domain"
	"github.com/petalworks/api/internal/repositories"
)

const (
	bouquetIDPrefix    = "bqt_"
	collectionIDPrefix = "col_"
)

var (
	// ErrCatalogMissingField signals a required catalog field was empty.
	ErrCatalogMissingField = errors.New("catalog: missing required field")
	// ErrCatalogNotFound indicates the bouquet or collection could not be located.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogInvalidInput signals the caller provided malformed input.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogInvalidReference signals a bouquet referenced an unknown collection.
	ErrCatalogInvalidReference = errors.New("catalog: invalid reference")
	// ErrCatalogConflict indicates a duplicate identifier or conflicting write.
	ErrCatalogConflict = errors.New("catalog: conflict")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Bouquets    repositories.BouquetRepository
	Collections repositories.CollectionRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	bouquets    repositories.BouquetRepository
	collections repositories.CollectionRepository
	clock       func() time.Time
	newID       func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Bouquets == nil {
		return nil, errors.New("catalog service: bouquet repository is required")
	}
	if deps.Collections == nil {
		return nil, errors.New("catalog service: collection repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	return &catalogService{
		bouquets:    deps.Bouquets,
		collections: deps.Collections,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *catalogService) CreateBouquet(ctx context.Context, cmd CreateBouquetCommand) (Bouquet, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Bouquet{}, fmt.Errorf("%w: name is required", ErrCatalogMissingField)
	}

	collectionID := strings.TrimSpace(cmd.CollectionID)
	if collectionID != "" {
		if _, err := s.collections.FindByID(ctx, collectionID); err != nil {
			return Bouquet{}, fmt.Errorf("%w: collection %s: %v", ErrCatalogInvalidReference, collectionID, err)
		}
	}

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	now := s.clock()
	bouquet := Bouquet{
		ID:           bouquetIDPrefix + s.newID(),
		Name:         name,
		Price:        domain.NormalizeAmount(cmd.Price),
		Description:  strings.TrimSpace(cmd.Description),
		CollectionID: collectionID,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.bouquets.Insert(ctx, bouquet); err != nil {
		return Bouquet{}, s.mapRepositoryError(err)
	}
	return bouquet, nil
}

func (s *catalogService) GetBouquet(ctx context.Context, bouquetID string) (Bouquet, error) {
	bouquetID = strings.TrimSpace(bouquetID)
	if bouquetID == "" {
		return Bouquet{}, fmt.Errorf("%w: bouquet id is required", ErrCatalogInvalidInput)
	}
	bouquet, err := s.bouquets.FindByID(ctx, bouquetID)
	if err != nil {
		return Bouquet{}, s.mapRepositoryError(err)
	}
	return bouquet, nil
}

func (s *catalogService) ListBouquets(ctx context.Context, filter BouquetListFilter) ([]Bouquet, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultOrderListLimit
	}
	if limit > maxOrderListLimit {
		limit = maxOrderListLimit
	}

	bouquets, err := s.bouquets.List(ctx, repositories.BouquetListFilter{
		CollectionID: strings.TrimSpace(filter.CollectionID),
		Limit:        limit,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return bouquets, nil
}

func (s *catalogService) UpdateBouquet(ctx context.Context, cmd UpdateBouquetCommand) (Bouquet, error) {
	bouquetID := strings.TrimSpace(cmd.BouquetID)
	if bouquetID == "" {
		return Bouquet{}, fmt.Errorf("%w: bouquet id is required", ErrCatalogInvalidInput)
	}

	bouquet, err := s.bouquets.FindByID(ctx, bouquetID)
	if err != nil {
		return Bouquet{}, s.mapRepositoryError(err)
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return Bouquet{}, fmt.Errorf("%w: name is required", ErrCatalogMissingField)
		}
		bouquet.Name = name
	}
	if cmd.Price != nil {
		bouquet.Price = domain.NormalizeAmount(*cmd.Price)
	}
	if cmd.Description != nil {
		bouquet.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.CollectionID != nil {
		collectionID := strings.TrimSpace(*cmd.CollectionID)
		if collectionID != "" {
			if _, err := s.collections.FindByID(ctx, collectionID); err != nil {
				return Bouquet{}, fmt.Errorf("%w: collection %s: %v", ErrCatalogInvalidReference, collectionID, err)
			}
		}
		bouquet.CollectionID = collectionID
	}
	if cmd.Active != nil {
		bouquet.Active = *cmd.Active
	}
	bouquet.UpdatedAt = s.clock()

	if err := s.bouquets.Update(ctx, bouquet); err != nil {
		return Bouquet{}, s.mapRepositoryError(err)
	}
	return bouquet, nil
}

// DeleteBouquet removes the bouquet. Orders keep their product snapshots; the
// reference is weak.
func (s *catalogService) DeleteBouquet(ctx context.Context, bouquetID string) error {
	bouquetID = strings.TrimSpace(bouquetID)
	if bouquetID == "" {
		return fmt.Errorf("%w: bouquet id is required", ErrCatalogInvalidInput)
	}
	if err := s.bouquets.Delete(ctx, bouquetID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *catalogService) CreateCollection(ctx context.Context, cmd CreateCollectionCommand) (Collection, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Collection{}, fmt.Errorf("%w: name is required", ErrCatalogMissingField)
	}

	now := s.clock()
	collection := Collection{
		ID:        collectionIDPrefix + s.newID(),
		Name:      name,
		Slug:      buildSlug(cmd.Slug, name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.collections.Insert(ctx, collection); err != nil {
		return Collection{}, s.mapRepositoryError(err)
	}
	return collection, nil
}

func (s *catalogService) GetCollection(ctx context.Context, collectionID string) (Collection, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return Collection{}, fmt.Errorf("%w: collection id is required", ErrCatalogInvalidInput)
	}
	collection, err := s.collections.FindByID(ctx, collectionID)
	if err != nil {
		return Collection{}, s.mapRepositoryError(err)
	}
	return collection, nil
}

func (s *catalogService) ListCollections(ctx context.Context, limit int) ([]Collection, error) {
	if limit <= 0 {
		limit = defaultOrderListLimit
	}
	if limit > maxOrderListLimit {
		limit = maxOrderListLimit
	}
	collections, err := s.collections.ListRecent(ctx, limit)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return collections, nil
}

func buildSlug(slug, name string) string {
	source := strings.TrimSpace(slug)
	if source == "" {
		source = name
	}
	source = strings.ToLower(source)
	var b strings.Builder
	lastDash := true
	for _, r := range source {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCatalogConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("catalog: repository unavailable: %w", err)
		}
	}

	return err
}
