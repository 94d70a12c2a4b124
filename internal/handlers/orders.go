package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/petalworks/api/internal/platform/httpx"
	"github.com/petalworks/api/internal/services"
)

const maxOrderBodySize = 32 * 1024

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

type createOrderRequest struct {
	CustomerID        string  `json:"customerId"`
	BuyerName         string  `json:"buyerName"`
	PhoneNumber       string  `json:"phoneNumber"`
	Address           string  `json:"address"`
	ProductID         string  `json:"productId"`
	ProductName       string  `json:"productName"`
	ProductPrice      float64 `json:"productPrice"`
	Status            string  `json:"status"`
	PaymentMethod     string  `json:"paymentMethod"`
	DownPaymentAmount float64 `json:"downPaymentAmount"`
	AdditionalPayment float64 `json:"additionalPayment"`
	DeliveryPrice     float64 `json:"deliveryPrice"`
	DeliveryAt        string  `json:"deliveryAt"`
}

type updateOrderRequest struct {
	CustomerID        *string  `json:"customerId"`
	BuyerName         *string  `json:"buyerName"`
	PhoneNumber       *string  `json:"phoneNumber"`
	Address           *string  `json:"address"`
	ProductID         *string  `json:"productId"`
	ProductName       *string  `json:"productName"`
	ProductPrice      *float64 `json:"productPrice"`
	Status            *string  `json:"status"`
	PaymentMethod     *string  `json:"paymentMethod"`
	DownPaymentAmount *float64 `json:"downPaymentAmount"`
	AdditionalPayment *float64 `json:"additionalPayment"`
	DeliveryPrice     *float64 `json:"deliveryPrice"`
	DeliveryAt        *string  `json:"deliveryAt"`
}

type orderListResponse struct {
	Items []orderPayload `json:"items"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID                string                 `json:"id"`
	CustomerID        string                 `json:"customerId,omitempty"`
	BuyerName         string                 `json:"buyerName"`
	PhoneNumber       string                 `json:"phoneNumber"`
	Address           string                 `json:"address"`
	ProductID         string                 `json:"productId"`
	ProductName       string                 `json:"productName"`
	ProductPrice      int64                  `json:"productPrice"`
	Status            string                 `json:"status"`
	PaymentMethod     string                 `json:"paymentMethod,omitempty"`
	DownPaymentAmount int64                  `json:"downPaymentAmount"`
	AdditionalPayment int64                  `json:"additionalPayment"`
	DeliveryPrice     int64                  `json:"deliveryPrice"`
	TotalAmount       int64                  `json:"totalAmount"`
	PaymentStatus     string                 `json:"paymentStatus"`
	DeliveryAt        string                 `json:"deliveryAt,omitempty"`
	Activity          []activityItemPayload  `json:"activity"`
	CreatedAt         string                 `json:"createdAt"`
	UpdatedAt         string                 `json:"updatedAt"`
}

type activityItemPayload struct {
	Timestamp string `json:"timestamp"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// OrderHandlers exposes the order lifecycle endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOrders)
	r.Post("/", h.createOrder)
	r.Get("/{orderID}", h.getOrder)
	r.Patch("/{orderID}", h.updateOrder)
	r.Delete("/{orderID}", h.deleteOrder)
	r.Post("/{orderID}:advance", h.advanceOrder)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := services.OrderListFilter{
		FilterText: query.Get("filter"),
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be an integer", http.StatusBadRequest))
			return
		}
		filter.Limit = limit
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		items = append(items, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Items: items})
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	order, err := h.orders.CreateOrder(ctx, services.CreateOrderCommand{
		CustomerID:        req.CustomerID,
		BuyerName:         req.BuyerName,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
		ProductID:         req.ProductID,
		ProductName:       req.ProductName,
		ProductPrice:      req.ProductPrice,
		Status:            req.Status,
		PaymentMethod:     req.PaymentMethod,
		DownPaymentAmount: req.DownPaymentAmount,
		AdditionalPayment: req.AdditionalPayment,
		DeliveryPrice:     req.DeliveryPrice,
		DeliveryAt:        req.DeliveryAt,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req updateOrderRequest
	body, err := readLimitedBody(r, maxOrderBodySize)
	switch {
	case errors.Is(err, errEmptyBody):
		// An empty patch is still a touch; the service records it.
	case err != nil:
		writeBodyError(ctx, w, err)
		return
	default:
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
			return
		}
	}

	order, err := h.orders.UpdateOrder(ctx, services.UpdateOrderCommand{
		OrderID:           orderID,
		CustomerID:        req.CustomerID,
		BuyerName:         req.BuyerName,
		PhoneNumber:       req.PhoneNumber,
		Address:           req.Address,
		ProductID:         req.ProductID,
		ProductName:       req.ProductName,
		ProductPrice:      req.ProductPrice,
		Status:            req.Status,
		PaymentMethod:     req.PaymentMethod,
		DownPaymentAmount: req.DownPaymentAmount,
		AdditionalPayment: req.AdditionalPayment,
		DeliveryPrice:     req.DeliveryPrice,
		DeliveryAt:        req.DeliveryAt,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.DeleteOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) advanceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.AdvanceOrderStatus(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:                order.ID,
		CustomerID:        order.CustomerID,
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
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
	if order.DeliveryAt != nil {
		payload.DeliveryAt = formatTime(*order.DeliveryAt)
	}
	payload.Activity = make([]activityItemPayload, 0, len(order.Activity))
	for _, entry := range order.Activity {
		payload.Activity = append(payload.Activity, activityItemPayload{
			Timestamp: formatTime(entry.Timestamp),
			Kind:      entry.Kind,
			Message:   entry.Message,
		})
	}
	return payload
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderMissingField):
		httpx.WriteError(ctx, w, httpx.NewError("missing_field", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidReference):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_reference", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidTimestamp):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_timestamp", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process order request", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxOrderBodySize
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
