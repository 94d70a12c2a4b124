package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/petalworks/api/internal/platform/httpx"
	"github.com/petalworks/api/internal/services"
)

const maxCatalogBodySize = 16 * 1024

type createBouquetRequest struct {
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	CollectionID string  `json:"collectionId"`
	Active       *bool   `json:"active"`
}

type updateBouquetRequest struct {
	Name         *string  `json:"name"`
	Price        *float64 `json:"price"`
	Description  *string  `json:"description"`
	CollectionID *string  `json:"collectionId"`
	Active       *bool    `json:"active"`
}

type createCollectionRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type bouquetListResponse struct {
	Items []bouquetPayload `json:"items"`
}

type bouquetResponse struct {
	Bouquet bouquetPayload `json:"bouquet"`
}

type bouquetPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	Description  string `json:"description,omitempty"`
	CollectionID string `json:"collectionId,omitempty"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type collectionListResponse struct {
	Items []collectionPayload `json:"items"`
}

type collectionResponse struct {
	Collection collectionPayload `json:"collection"`
}

type collectionPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// CatalogHandlers exposes bouquet and collection endpoints.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/bouquets", h.listBouquets)
	r.Post("/bouquets", h.createBouquet)
	r.Get("/bouquets/{bouquetID}", h.getBouquet)
	r.Patch("/bouquets/{bouquetID}", h.updateBouquet)
	r.Delete("/bouquets/{bouquetID}", h.deleteBouquet)
	r.Get("/collections", h.listCollections)
	r.Post("/collections", h.createCollection)
	r.Get("/collections/{collectionID}", h.getCollection)
}

func (h *CatalogHandlers) listBouquets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := services.BouquetListFilter{
		CollectionID: query.Get("collection"),
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be an integer", http.StatusBadRequest))
			return
		}
		filter.Limit = limit
	}

	bouquets, err := h.catalog.ListBouquets(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]bouquetPayload, 0, len(bouquets))
	for _, bouquet := range bouquets {
		items = append(items, buildBouquetPayload(bouquet))
	}
	writeJSONResponse(w, http.StatusOK, bouquetListResponse{Items: items})
}

func (h *CatalogHandlers) createBouquet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCatalogBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req createBouquetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	bouquet, err := h.catalog.CreateBouquet(ctx, services.CreateBouquetCommand{
		Name:         req.Name,
		Price:        req.Price,
		Description:  req.Description,
		CollectionID: req.CollectionID,
		Active:       req.Active,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, bouquetResponse{Bouquet: buildBouquetPayload(bouquet)})
}

func (h *CatalogHandlers) getBouquet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	bouquetID := strings.TrimSpace(chi.URLParam(r, "bouquetID"))
	if bouquetID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "bouquet id is required", http.StatusBadRequest))
		return
	}

	bouquet, err := h.catalog.GetBouquet(ctx, bouquetID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, bouquetResponse{Bouquet: buildBouquetPayload(bouquet)})
}

func (h *CatalogHandlers) updateBouquet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	bouquetID := strings.TrimSpace(chi.URLParam(r, "bouquetID"))
	if bouquetID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "bouquet id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxCatalogBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req updateBouquetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	bouquet, err := h.catalog.UpdateBouquet(ctx, services.UpdateBouquetCommand{
		BouquetID:    bouquetID,
		Name:         req.Name,
		Price:        req.Price,
		Description:  req.Description,
		CollectionID: req.CollectionID,
		Active:       req.Active,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, bouquetResponse{Bouquet: buildBouquetPayload(bouquet)})
}

func (h *CatalogHandlers) deleteBouquet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	bouquetID := strings.TrimSpace(chi.URLParam(r, "bouquetID"))
	if bouquetID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "bouquet id is required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.DeleteBouquet(ctx, bouquetID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandlers) listCollections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be an integer", http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	collections, err := h.catalog.ListCollections(ctx, limit)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]collectionPayload, 0, len(collections))
	for _, collection := range collections {
		items = append(items, buildCollectionPayload(collection))
	}
	writeJSONResponse(w, http.StatusOK, collectionListResponse{Items: items})
}

func (h *CatalogHandlers) createCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCatalogBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req createCollectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	collection, err := h.catalog.CreateCollection(ctx, services.CreateCollectionCommand{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, collectionResponse{Collection: buildCollectionPayload(collection)})
}

func (h *CatalogHandlers) getCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	collectionID := strings.TrimSpace(chi.URLParam(r, "collectionID"))
	if collectionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "collection id is required", http.StatusBadRequest))
		return
	}

	collection, err := h.catalog.GetCollection(ctx, collectionID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, collectionResponse{Collection: buildCollectionPayload(collection)})
}

func buildBouquetPayload(bouquet services.Bouquet) bouquetPayload {
	return bouquetPayload{
		ID:           bouquet.ID,
		Name:         bouquet.Name,
		Price:        bouquet.Price,
		Description:  bouquet.Description,
		CollectionID: bouquet.CollectionID,
		Active:       bouquet.Active,
		CreatedAt:    formatTime(bouquet.CreatedAt),
		UpdatedAt:    formatTime(bouquet.UpdatedAt),
	}
}

func buildCollectionPayload(collection services.Collection) collectionPayload {
	return collectionPayload{
		ID:        collection.ID,
		Name:      collection.Name,
		Slug:      collection.Slug,
		CreatedAt: formatTime(collection.CreatedAt),
		UpdatedAt: formatTime(collection.UpdatedAt),
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogMissingField):
		httpx.WriteError(ctx, w, httpx.NewError("missing_field", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogInvalidReference):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_reference", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("bouquet_not_found", "bouquet or collection not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_conflict", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}
