package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/petalworks/api/internal/domain"
	"github.com/petalworks/api/internal/repositories"
)

const (
	orderEventCreated = "order.created"
	orderEventUpdated = "order.updated"
	orderEventDeleted = "order.deleted"

	orderIDPrefix = "ord_"

	filterTextMaxRunes = 120

	defaultOrderListLimit = 100
	maxOrderListLimit     = 500
)

var (
	// ErrOrderMissingField signals a required field was empty after resolution.
	ErrOrderMissingField = errors.New("order: missing required field")
	// ErrOrderInvalidReference signals a supplied customer reference could not be resolved.
	ErrOrderInvalidReference = errors.New("order: invalid reference")
	// ErrOrderInvalidTimestamp signals a delivery time that could not be parsed.
	ErrOrderInvalidTimestamp = errors.New("order: invalid timestamp")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidInput signals the caller provided an unknown label or malformed value.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderConflict indicates a duplicate identifier or conflicting write.
	ErrOrderConflict = errors.New("order: conflict")
)

var deliveryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Customers   repositories.CustomerRepository
	Bouquets    repositories.BouquetRepository
	Limits      OrderListLimits
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders    repositories.OrderRepository
	customers repositories.CustomerRepository
	bouquets  repositories.BouquetRepository
	limits    OrderListLimits
	clock     func() time.Time
	newID     func() string
	events    OrderEventPublisher
	logger    func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Customers == nil {
		return nil, errors.New("order service: customer repository is required")
	}
	if deps.Bouquets == nil {
		return nil, errors.New("order service: bouquet repository is required")
	}

	limits := deps.Limits
	if limits.Default <= 0 {
		limits.Default = defaultOrderListLimit
	}
	if limits.Max <= 0 {
		limits.Max = maxOrderListLimit
	}
	if limits.Default > limits.Max {
		limits.Default = limits.Max
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

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:    deps.Orders,
		customers: deps.Customers,
		bouquets:  deps.Bouquets,
		limits:    limits,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	status := domain.OrderStatus(strings.TrimSpace(cmd.Status))
	if status == "" {
		status = domain.OrderStatusInquiry
	}
	if !domain.ValidOrderStatus(status) {
		return Order{}, fmt.Errorf("%w: unknown order status %q", ErrOrderInvalidInput, cmd.Status)
	}

	method := domain.PaymentMethod(strings.TrimSpace(cmd.PaymentMethod))
	if !domain.ValidPaymentMethod(method) {
		return Order{}, fmt.Errorf("%w: unknown payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}

	deliveryAt, err := parseDeliveryTime(cmd.DeliveryAt)
	if err != nil {
		return Order{}, err
	}

	now := s.now()
	order := Order{
		ID:                s.nextOrderID(),
		BuyerName:         strings.TrimSpace(cmd.BuyerName),
		PhoneNumber:       strings.TrimSpace(cmd.PhoneNumber),
		Address:           strings.TrimSpace(cmd.Address),
		Status:            status,
		PaymentMethod:     method,
		DownPaymentAmount: domain.NormalizeAmount(cmd.DownPaymentAmount),
		AdditionalPayment: domain.NormalizeAmount(cmd.AdditionalPayment),
		DeliveryPrice:     domain.NormalizeAmount(cmd.DeliveryPrice),
		DeliveryAt:        deliveryAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if customerID := strings.TrimSpace(cmd.CustomerID); customerID != "" {
		customer, err := s.customers.FindByID(ctx, customerID)
		if err != nil {
			return Order{}, fmt.Errorf("%w: customer %s: %v", ErrOrderInvalidReference, customerID, err)
		}
		order.CustomerID = customer.ID
		order.BuyerName = customer.Name
		order.PhoneNumber = customer.Phone
		order.Address = customer.Address
	}

	order.ProductID = strings.TrimSpace(cmd.ProductID)
	if order.ProductID == "" {
		return Order{}, fmt.Errorf("%w: product id is required", ErrOrderMissingField)
	}
	order.ProductName, order.ProductPrice = s.resolveProductSnapshot(ctx, order.ProductID, cmd.ProductName, domain.NormalizeAmount(cmd.ProductPrice))

	if err := validateRequiredOrderFields(order); err != nil {
		return Order{}, err
	}

	order.TotalAmount = order.ProductPrice + order.DeliveryPrice
	order.PaymentStatus = domain.DerivePaymentStatus(order.TotalAmount, order.DownPaymentAmount, order.AdditionalPayment)
	order.Activity = []ActivityEntry{creationActivity(order, now)}

	if err := s.orders.Insert(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, orderEvent(orderEventCreated, order, now))
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	limit := clampLimit(filter.Limit, s.limits)
	matcher := buildFilterMatcher(filter.FilterText)

	fetchLimit := limit
	if matcher != nil {
		// Text filtering happens after the bounded fetch, so widen the window
		// to the maximum before narrowing.
		fetchLimit = s.limits.Max
	}

	orders, err := s.orders.ListRecent(ctx, repositories.OrderListQuery{Limit: fetchLimit})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	if matcher == nil {
		return orders, nil
	}

	filtered := make([]Order, 0, limit)
	for _, order := range orders {
		if matcher.MatchString(order.BuyerName) || matcher.MatchString(order.PhoneNumber) {
			filtered = append(filtered, order)
			if len(filtered) == limit {
				break
			}
		}
	}
	return filtered, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, cmd UpdateOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	stored, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	updated := stored
	updated.Activity = append([]ActivityEntry(nil), stored.Activity...)

	if cmd.CustomerID != nil {
		customerID := strings.TrimSpace(*cmd.CustomerID)
		if customerID == "" {
			// Unlink only; the buyer snapshot keeps its last linked values.
			updated.CustomerID = ""
		} else {
			customer, err := s.customers.FindByID(ctx, customerID)
			if err != nil {
				return Order{}, fmt.Errorf("%w: customer %s: %v", ErrOrderInvalidReference, customerID, err)
			}
			updated.CustomerID = customer.ID
			updated.BuyerName = customer.Name
			updated.PhoneNumber = customer.Phone
			updated.Address = customer.Address
		}
	}

	// Direct buyer edits only apply while the order is unlinked; for linked
	// orders the customer record stays authoritative and the patch fields are
	// ignored.
	if !updated.Linked() {
		if cmd.BuyerName != nil {
			updated.BuyerName = strings.TrimSpace(*cmd.BuyerName)
		}
		if cmd.PhoneNumber != nil {
			updated.PhoneNumber = strings.TrimSpace(*cmd.PhoneNumber)
		}
		if cmd.Address != nil {
			updated.Address = strings.TrimSpace(*cmd.Address)
		}
	}

	if cmd.Status != nil {
		status := domain.OrderStatus(strings.TrimSpace(*cmd.Status))
		if !domain.ValidOrderStatus(status) {
			return Order{}, fmt.Errorf("%w: unknown order status %q", ErrOrderInvalidInput, *cmd.Status)
		}
		updated.Status = status
	}

	if cmd.PaymentMethod != nil {
		method := domain.PaymentMethod(strings.TrimSpace(*cmd.PaymentMethod))
		if !domain.ValidPaymentMethod(method) {
			return Order{}, fmt.Errorf("%w: unknown payment method %q", ErrOrderInvalidInput, *cmd.PaymentMethod)
		}
		updated.PaymentMethod = method
	}

	if cmd.DeliveryAt != nil {
		if strings.TrimSpace(*cmd.DeliveryAt) == "" {
			updated.DeliveryAt = nil
		} else {
			deliveryAt, err := parseDeliveryTime(*cmd.DeliveryAt)
			if err != nil {
				return Order{}, err
			}
			updated.DeliveryAt = deliveryAt
		}
	}

	if cmd.DownPaymentAmount != nil {
		updated.DownPaymentAmount = domain.NormalizeAmount(*cmd.DownPaymentAmount)
	}
	if cmd.AdditionalPayment != nil {
		updated.AdditionalPayment = domain.NormalizeAmount(*cmd.AdditionalPayment)
	}
	if cmd.DeliveryPrice != nil {
		updated.DeliveryPrice = domain.NormalizeAmount(*cmd.DeliveryPrice)
	}

	if cmd.ProductID != nil {
		productID := strings.TrimSpace(*cmd.ProductID)
		if productID == "" {
			return Order{}, fmt.Errorf("%w: product id is required", ErrOrderMissingField)
		}
		if productID != stored.ProductID {
			fallbackName := stored.ProductName
			if cmd.ProductName != nil {
				fallbackName = *cmd.ProductName
			}
			fallbackPrice := stored.ProductPrice
			if cmd.ProductPrice != nil {
				fallbackPrice = domain.NormalizeAmount(*cmd.ProductPrice)
			}
			updated.ProductID = productID
			updated.ProductName, updated.ProductPrice = s.resolveProductSnapshot(ctx, productID, fallbackName, fallbackPrice)
		}
	}
	if updated.ProductID == stored.ProductID {
		// Snapshot edits without a reference change apply directly.
		if cmd.ProductName != nil && strings.TrimSpace(*cmd.ProductName) != "" {
			updated.ProductName = strings.TrimSpace(*cmd.ProductName)
		}
		if cmd.ProductPrice != nil {
			updated.ProductPrice = domain.NormalizeAmount(*cmd.ProductPrice)
		}
	}

	if err := validateRequiredOrderFields(updated); err != nil {
		return Order{}, err
	}

	updated.TotalAmount = updated.ProductPrice + updated.DeliveryPrice
	updated.PaymentStatus = domain.DerivePaymentStatus(updated.TotalAmount, updated.DownPaymentAmount, updated.AdditionalPayment)

	now := s.now()
	updated.Activity = appendActivity(updated.Activity, changeActivity(stored, updated, now)...)
	updated.UpdatedAt = now

	if err := s.orders.Update(ctx, updated); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, orderEvent(orderEventUpdated, updated, now))
	return updated, nil
}

func (s *orderService) AdvanceOrderStatus(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	next := string(domain.NextOrderStatus(order.Status))
	return s.UpdateOrder(ctx, UpdateOrderCommand{OrderID: orderID, Status: &next})
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, orderEvent(orderEventDeleted, order, s.now()))
	return order, nil
}

// resolveProductSnapshot looks the bouquet up in the catalog and falls back to
// the supplied name and price on any lookup failure. Lookup failures never
// surface to the caller; prices are floored at zero.
func (s *orderService) resolveProductSnapshot(ctx context.Context, productID, fallbackName string, fallbackPrice int64) (string, int64) {
	name := strings.TrimSpace(fallbackName)
	price := fallbackPrice
	if price < 0 {
		price = 0
	}

	bouquet, err := s.bouquets.FindByID(ctx, productID)
	if err != nil {
		s.logger(ctx, "order.product.lookup.failed", map[string]any{
			"product": productID,
			"error":   err.Error(),
		})
		return name, price
	}

	snapshotPrice := bouquet.Price
	if snapshotPrice < 0 {
		snapshotPrice = 0
	}
	return bouquet.Name, snapshotPrice
}

func validateRequiredOrderFields(order Order) error {
	switch {
	case order.BuyerName == "":
		return fmt.Errorf("%w: buyer name is required", ErrOrderMissingField)
	case order.PhoneNumber == "":
		return fmt.Errorf("%w: phone number is required", ErrOrderMissingField)
	case order.Address == "":
		return fmt.Errorf("%w: address is required", ErrOrderMissingField)
	case order.ProductID == "":
		return fmt.Errorf("%w: product id is required", ErrOrderMissingField)
	case order.ProductName == "":
		return fmt.Errorf("%w: product name is required", ErrOrderMissingField)
	}
	return nil
}

func parseDeliveryTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range deliveryTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			utc := parsed.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("%w: unparseable delivery time %q", ErrOrderInvalidTimestamp, raw)
}

func clampLimit(limit int, limits OrderListLimits) int {
	switch {
	case limit == 0:
		return limits.Default
	case limit < 1:
		return 1
	case limit > limits.Max:
		return limits.Max
	default:
		return limit
	}
}

// buildFilterMatcher compiles the free-text filter into a case-insensitive
// literal substring matcher. Regex metacharacters in the input are escaped so
// they match themselves.
func buildFilterMatcher(filterText string) *regexp.Regexp {
	text := strings.TrimSpace(filterText)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) > filterTextMaxRunes {
		text = string(runes[:filterTextMaxRunes])
	}
	matcher, err := regexp.Compile("(?i)" + regexp.QuoteMeta(text))
	if err != nil {
		return nil
	}
	return matcher
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) nextOrderID() string {
	return orderIDPrefix + s.newID()
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"event": event.Name,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func orderEvent(name string, order Order, occurredAt time.Time) OrderEvent {
	return OrderEvent{
		Name:          name,
		OrderID:       order.ID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalAmount:   order.TotalAmount,
		OccurredAt:    occurredAt,
	}
}
