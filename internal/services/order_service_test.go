package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	domain "github.com/petalworks/api/internal/domain"
	"github.com/petalworks/api/internal/repositories"
)

type stubOrderRepo struct {
	insertFn func(context.Context, domain.Order) error
	updateFn func(context.Context, domain.Order) error
	findFn   func(context.Context, string) (domain.Order, error)
	deleteFn func(context.Context, string) error
	listFn   func(context.Context, repositories.OrderListQuery) ([]domain.Order, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

func (s *stubOrderRepo) ListRecent(ctx context.Context, query repositories.OrderListQuery) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, query)
	}
	return nil, nil
}

type stubCustomerRepo struct {
	insertFn func(context.Context, domain.Customer) error
	updateFn func(context.Context, domain.Customer) error
	findFn   func(context.Context, string) (domain.Customer, error)
	deleteFn func(context.Context, string) error
	listFn   func(context.Context, int) ([]domain.Customer, error)
}

func (s *stubCustomerRepo) Insert(ctx context.Context, customer domain.Customer) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, customer)
	}
	return nil
}

func (s *stubCustomerRepo) Update(ctx context.Context, customer domain.Customer) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, customer)
	}
	return nil
}

func (s *stubCustomerRepo) FindByID(ctx context.Context, customerID string) (domain.Customer, error) {
	if s.findFn != nil {
		return s.findFn(ctx, customerID)
	}
	return domain.Customer{}, errors.New("not implemented")
}

func (s *stubCustomerRepo) Delete(ctx context.Context, customerID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, customerID)
	}
	return nil
}

func (s *stubCustomerRepo) ListRecent(ctx context.Context, limit int) ([]domain.Customer, error) {
	if s.listFn != nil {
		return s.listFn(ctx, limit)
	}
	return nil, nil
}

type stubBouquetRepo struct {
	insertFn func(context.Context, domain.Bouquet) error
	updateFn func(context.Context, domain.Bouquet) error
	findFn   func(context.Context, string) (domain.Bouquet, error)
	deleteFn func(context.Context, string) error
	listFn   func(context.Context, repositories.BouquetListFilter) ([]domain.Bouquet, error)
}

func (s *stubBouquetRepo) Insert(ctx context.Context, bouquet domain.Bouquet) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, bouquet)
	}
	return nil
}

func (s *stubBouquetRepo) Update(ctx context.Context, bouquet domain.Bouquet) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, bouquet)
	}
	return nil
}

func (s *stubBouquetRepo) FindByID(ctx context.Context, bouquetID string) (domain.Bouquet, error) {
	if s.findFn != nil {
		return s.findFn(ctx, bouquetID)
	}
	return domain.Bouquet{}, errors.New("not implemented")
}

func (s *stubBouquetRepo) Delete(ctx context.Context, bouquetID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, bouquetID)
	}
	return nil
}

func (s *stubBouquetRepo) List(ctx context.Context, filter repositories.BouquetListFilter) ([]domain.Bouquet, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

type captureOrderEvents struct {
	events []OrderEvent
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return nil
}

type notFoundError struct{ msg string }

func (e notFoundError) Error() string       { return e.msg }
func (e notFoundError) IsNotFound() bool    { return true }
func (e notFoundError) IsConflict() bool    { return false }
func (e notFoundError) IsUnavailable() bool { return false }

func newOrderServiceForTest(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{}
	}
	if deps.Customers == nil {
		deps.Customers = &stubCustomerRepo{}
	}
	if deps.Bouquets == nil {
		deps.Bouquets = &stubBouquetRepo{}
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time {
			return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		}
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "000TEST" }
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc
}

func TestOrderServiceCreateOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	var inserted domain.Order
	events := &captureOrderEvents{}

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			insertFn: func(_ context.Context, order domain.Order) error {
				inserted = order
				return nil
			},
		},
		Bouquets: &stubBouquetRepo{
			findFn: func(_ context.Context, bouquetID string) (domain.Bouquet, error) {
				if bouquetID != "bqt_roses" {
					t.Fatalf("unexpected bouquet id %s", bouquetID)
				}
				return domain.Bouquet{ID: bouquetID, Name: "Crimson Roses", Price: 50000}, nil
			},
		},
		Clock:  func() time.Time { return now },
		Events: events,
	})

	order, err := svc.CreateOrder(ctx, CreateOrderCommand{
		BuyerName:     "Sari",
		PhoneNumber:   "+62-812-0001",
		Address:       "Jl. Melati 4",
		ProductID:     "bqt_roses",
		DeliveryPrice: 5000,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.ID != "ord_000TEST" {
		t.Fatalf("unexpected order id %s", order.ID)
	}
	if order.Status != domain.OrderStatusInquiry {
		t.Fatalf("expected status inquiry got %s", order.Status)
	}
	if order.ProductName != "Crimson Roses" || order.ProductPrice != 50000 {
		t.Fatalf("unexpected product snapshot %s/%d", order.ProductName, order.ProductPrice)
	}
	if order.TotalAmount != 55000 {
		t.Fatalf("expected total 55000 got %d", order.TotalAmount)
	}
	if order.PaymentStatus != domain.PaymentStatusUnpaid {
		t.Fatalf("expected unpaid got %s", order.PaymentStatus)
	}
	if len(order.Activity) != 1 || order.Activity[0].Kind != "created" {
		t.Fatalf("expected a single creation activity entry, got %+v", order.Activity)
	}
	if !order.CreatedAt.Equal(now) || !order.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps not pinned to clock: %v / %v", order.CreatedAt, order.UpdatedAt)
	}
	if inserted.ID != order.ID {
		t.Fatalf("repository insert not invoked with created order")
	}
	if len(events.events) != 1 || events.events[0].Name != "order.created" {
		t.Fatalf("expected order.created event, got %+v", events.events)
	}
}

func TestOrderServiceCreateOrderLinksCustomer(t *testing.T) {
	ctx := context.Background()
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Customers: &stubCustomerRepo{
			findFn: func(_ context.Context, customerID string) (domain.Customer, error) {
				return domain.Customer{ID: customerID, Name: "Budi", Phone: "+62-811-9999", Address: "Jl. Anggrek 7"}, nil
			},
		},
		Bouquets: &stubBouquetRepo{
			findFn: func(_ context.Context, bouquetID string) (domain.Bouquet, error) {
				return domain.Bouquet{ID: bouquetID, Name: "Sunset Lilies", Price: 30000}, nil
			},
		},
	})

	order, err := svc.CreateOrder(ctx, CreateOrderCommand{
		CustomerID:  "cus_1",
		BuyerName:   "ignored",
		PhoneNumber: "ignored",
		Address:     "ignored",
		ProductID:   "bqt_lilies",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.CustomerID != "cus_1" {
		t.Fatalf("expected linked customer, got %q", order.CustomerID)
	}
	if order.BuyerName != "Budi" || order.PhoneNumber != "+62-811-9999" || order.Address != "Jl. Anggrek 7" {
		t.Fatalf("buyer snapshot not taken from customer record: %+v", order)
	}
}

func TestOrderServiceCreateOrderUnknownCustomer(t *testing.T) {
	ctx := context.Background()
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Customers: &stubCustomerRepo{
			findFn: func(context.Context, string) (domain.Customer, error) {
				return domain.Customer{}, notFoundError{msg: "customer missing"}
			},
		},
	})

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{
		CustomerID: "cus_missing",
		ProductID:  "bqt_roses",
	})
	if !errors.Is(err, ErrOrderInvalidReference) {
		t.Fatalf("expected invalid reference error, got %v", err)
	}
}

func TestOrderServiceCreateOrderProductFallback(t *testing.T) {
	ctx := context.Background()
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Bouquets: &stubBouquetRepo{
			findFn: func(context.Context, string) (domain.Bouquet, error) {
				return domain.Bouquet{}, errors.New("catalog unavailable")
			},
		},
	})

	order, err := svc.CreateOrder(ctx, CreateOrderCommand{
		BuyerName:    "Sari",
		PhoneNumber:  "+62-812-0001",
		Address:      "Jl. Melati 4",
		ProductID:    "bqt_custom",
		ProductName:  "Custom Arrangement",
		ProductPrice: 75000.4,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ProductName != "Custom Arrangement" {
		t.Fatalf("expected fallback product name, got %q", order.ProductName)
	}
	if order.ProductPrice != 75000 {
		t.Fatalf("expected rounded fallback price 75000, got %d", order.ProductPrice)
	}
}

func TestOrderServiceCreateOrderMissingFields(t *testing.T) {
	ctx := context.Background()
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Bouquets: &stubBouquetRepo{
			findFn: func(context.Context, string) (domain.Bouquet, error) {
				return domain.Bouquet{}, errors.New("catalog unavailable")
			},
		},
	})

	cases := []struct {
		name string
		cmd  CreateOrderCommand
	}{
		{name: "no product id", cmd: CreateOrderCommand{BuyerName: "Sari", PhoneNumber: "1", Address: "a"}},
		{name: "no buyer name", cmd: CreateOrderCommand{PhoneNumber: "1", Address: "a", ProductID: "bqt_1", ProductName: "X"}},
		{name: "no phone", cmd: CreateOrderCommand{BuyerName: "Sari", Address: "a", ProductID: "bqt_1", ProductName: "X"}},
		{name: "no address", cmd: CreateOrderCommand{BuyerName: "Sari", PhoneNumber: "1", ProductID: "bqt_1", ProductName: "X"}},
		{name: "no product name after failed lookup", cmd: CreateOrderCommand{BuyerName: "Sari", PhoneNumber: "1", Address: "a", ProductID: "bqt_1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateOrder(ctx, tc.cmd); !errors.Is(err, ErrOrderMissingField) {
				t.Fatalf("expected missing field error, got %v", err)
			}
		})
	}
}

func TestOrderServiceCreateOrderInvalidDeliveryTime(t *testing.T) {
	ctx := context.Background()
	svc := newOrderServiceForTest(t, OrderServiceDeps{})

	_, err := svc.CreateOrder(ctx, CreateOrderCommand{
		BuyerName:   "Sari",
		PhoneNumber: "1",
		Address:     "a",
		ProductID:   "bqt_1",
		DeliveryAt:  "tomorrow-ish",
	})
	if !errors.Is(err, ErrOrderInvalidTimestamp) {
		t.Fatalf("expected invalid timestamp error, got %v", err)
	}
}

func TestOrderServiceCreateOrderRejectsUnknownLabels(t *testing.T) {
	ctx := context.Background()
	svc := newOrderServiceForTest(t, OrderServiceDeps{})

	if _, err := svc.CreateOrder(ctx, CreateOrderCommand{ProductID: "bqt_1", Status: "shipped"}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input for unknown status, got %v", err)
	}
	if _, err := svc.CreateOrder(ctx, CreateOrderCommand{ProductID: "bqt_1", PaymentMethod: "barter"}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input for unknown payment method, got %v", err)
	}
}

func storedOrderFixture(now time.Time) domain.Order {
	return domain.Order{
		ID:            "ord_1",
		BuyerName:     "Sari",
		PhoneNumber:   "+62-812-0001",
		Address:       "Jl. Melati 4",
		ProductID:     "bqt_roses",
		ProductName:   "Crimson Roses",
		ProductPrice:  50000,
		Status:        domain.OrderStatusOrdered,
		DeliveryPrice: 5000,
		TotalAmount:   55000,
		PaymentStatus: domain.PaymentStatusUnpaid,
		Activity: []domain.ActivityEntry{
			{Timestamp: now.Add(-time.Hour), Kind: "created", Message: "order created with status inquiry and payment unpaid"},
		},
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
}

func TestOrderServiceUpdateOrderPaymentDerivation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)
	var saved domain.Order

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(_ context.Context, orderID string) (domain.Order, error) {
				if orderID != "ord_1" {
					t.Fatalf("unexpected order id %s", orderID)
				}
				return stored, nil
			},
			updateFn: func(_ context.Context, order domain.Order) error {
				saved = order
				return nil
			},
		},
		Clock: func() time.Time { return now },
	})

	down := 55000.0
	order, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_1", DownPaymentAmount: &down})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}

	if order.PaymentStatus != domain.PaymentStatusPaidInFull {
		t.Fatalf("expected paid-in-full got %s", order.PaymentStatus)
	}
	if order.TotalAmount != 55000 {
		t.Fatalf("expected total 55000 got %d", order.TotalAmount)
	}
	if len(order.Activity) != 2 {
		t.Fatalf("expected 2 activity entries got %d", len(order.Activity))
	}
	last := order.Activity[len(order.Activity)-1]
	if last.Kind != "payment" {
		t.Fatalf("expected a single payment entry, got kind %s", last.Kind)
	}
	if !strings.Contains(last.Message, "unpaid") || !strings.Contains(last.Message, "paid in full") {
		t.Fatalf("payment entry should describe the transition: %q", last.Message)
	}
	if !saved.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %v got %v", now, saved.UpdatedAt)
	}
	if len(stored.Activity) != 1 {
		t.Fatalf("stored order activity mutated in place")
	}
}

func TestOrderServiceUpdateOrderStatusEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)
	stored.DownPaymentAmount = 55000
	stored.PaymentStatus = domain.PaymentStatusPaidInFull
	stored.Activity = append(stored.Activity, domain.ActivityEntry{Timestamp: now.Add(-time.Minute), Kind: "payment", Message: "payment status changed from unpaid to paid in full"})

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Clock: func() time.Time { return now },
	})

	status := string(domain.OrderStatusDelivered)
	order, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_1", Status: &status})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if order.Status != domain.OrderStatusDelivered {
		t.Fatalf("expected delivered got %s", order.Status)
	}
	if len(order.Activity) != 3 {
		t.Fatalf("expected 3 activity entries got %d", len(order.Activity))
	}
	if order.Activity[2].Kind != "status" {
		t.Fatalf("expected status entry got %s", order.Activity[2].Kind)
	}
}

func TestOrderServiceUpdateOrderLinkedBuyerLock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)
	stored.CustomerID = "cus_1"

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Clock: func() time.Time { return now },
	})

	name := "Someone Else"
	order, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_1", BuyerName: &name})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if order.BuyerName != "Sari" {
		t.Fatalf("linked order accepted a direct buyer edit: %q", order.BuyerName)
	}
	// The silently dropped edit still counts as a touch.
	if last := order.Activity[len(order.Activity)-1]; last.Kind != "edit" {
		t.Fatalf("expected generic edit entry got %s", last.Kind)
	}
}

func TestOrderServiceUpdateOrderUnlinkKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)
	stored.CustomerID = "cus_1"

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Clock: func() time.Time { return now },
	})

	empty := ""
	phone := "+62-813-7777"
	order, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_1", CustomerID: &empty, PhoneNumber: &phone})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if order.CustomerID != "" {
		t.Fatalf("expected order to be unlinked, got %q", order.CustomerID)
	}
	if order.BuyerName != "Sari" {
		t.Fatalf("unlink should keep the buyer snapshot, got %q", order.BuyerName)
	}
	if order.PhoneNumber != phone {
		t.Fatalf("direct edit should apply once unlinked, got %q", order.PhoneNumber)
	}
}

func TestOrderServiceUpdateOrderRelinkOverwritesBuyer(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Customers: &stubCustomerRepo{
			findFn: func(_ context.Context, customerID string) (domain.Customer, error) {
				return domain.Customer{ID: customerID, Name: "Budi", Phone: "+62-811-9999", Address: "Jl. Anggrek 7"}, nil
			},
		},
		Clock: func() time.Time { return now },
	})

	customerID := "cus_2"
	order, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_1", CustomerID: &customerID})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if order.CustomerID != "cus_2" || order.BuyerName != "Budi" || order.Address != "Jl. Anggrek 7" {
		t.Fatalf("relink should overwrite buyer fields: %+v", order)
	}
}

func TestOrderServiceUpdateOrderProductChange(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Bouquets: &stubBouquetRepo{
			findFn: func(_ context.Context, bouquetID string) (domain.Bouquet, error) {
				if bouquetID != "bqt_tulips" {
					t.Fatalf("unexpected bouquet lookup %s", bouquetID)
				}
				return domain.Bouquet{ID: bouquetID, Name: "Dutch Tulips", Price: 80000}, nil
			},
		},
		Clock: func() time.Time { return now },
	})

	productID := "bqt_tulips"
	order, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_1", ProductID: &productID})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if order.ProductName != "Dutch Tulips" || order.ProductPrice != 80000 {
		t.Fatalf("expected re-resolved snapshot, got %s/%d", order.ProductName, order.ProductPrice)
	}
	if order.TotalAmount != 85000 {
		t.Fatalf("expected total 85000 got %d", order.TotalAmount)
	}
	last := order.Activity[len(order.Activity)-1]
	if last.Kind != "product" || !strings.Contains(last.Message, "Crimson Roses") || !strings.Contains(last.Message, "Dutch Tulips") {
		t.Fatalf("expected product entry naming both snapshots, got %+v", last)
	}
}

func TestOrderServiceUpdateOrderActivityCap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)
	stored.Activity = make([]domain.ActivityEntry, 0, domain.MaxActivityEntries)
	for i := 0; i < domain.MaxActivityEntries; i++ {
		stored.Activity = append(stored.Activity, domain.ActivityEntry{
			Timestamp: now.Add(-time.Duration(domain.MaxActivityEntries-i) * time.Minute),
			Kind:      "edit",
			Message:   fmt.Sprintf("entry %d", i),
		})
	}

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Clock: func() time.Time { return now },
	})

	status := string(domain.OrderStatusProcessing)
	order, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_1", Status: &status})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if len(order.Activity) != domain.MaxActivityEntries {
		t.Fatalf("expected capped log of %d entries got %d", domain.MaxActivityEntries, len(order.Activity))
	}
	if order.Activity[0].Message != "entry 1" {
		t.Fatalf("expected oldest entry dropped, first is %q", order.Activity[0].Message)
	}
	if order.Activity[len(order.Activity)-1].Kind != "status" {
		t.Fatalf("expected newest entry to be the status change")
	}
}

func TestOrderServiceUpdateOrderNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) {
				return domain.Order{}, notFoundError{msg: "no such document"}
			},
		},
	})

	name := "x"
	if _, err := svc.UpdateOrder(ctx, UpdateOrderCommand{OrderID: "ord_missing", BuyerName: &name}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestOrderServiceAdvanceOrderStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Clock: func() time.Time { return now },
	})

	order, err := svc.AdvanceOrderStatus(ctx, "ord_1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected processing got %s", order.Status)
	}
}

func TestOrderServiceAdvanceOrderStatusSaturates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)
	stored.Status = domain.OrderStatusDelivered

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
		},
		Clock: func() time.Time { return now },
	})

	order, err := svc.AdvanceOrderStatus(ctx, "ord_1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if order.Status != domain.OrderStatusDelivered {
		t.Fatalf("delivered should be terminal, got %s", order.Status)
	}
	if last := order.Activity[len(order.Activity)-1]; last.Kind != "edit" {
		t.Fatalf("saturated advance should log a generic edit, got %s", last.Kind)
	}
}

func TestOrderServiceDeleteOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stored := storedOrderFixture(now)
	events := &captureOrderEvents{}
	var deletedID string

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			findFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			deleteFn: func(_ context.Context, orderID string) error {
				deletedID = orderID
				return nil
			},
		},
		Clock:  func() time.Time { return now },
		Events: events,
	})

	order, err := svc.DeleteOrder(ctx, "ord_1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if order.ID != "ord_1" || deletedID != "ord_1" {
		t.Fatalf("expected ord_1 removed, got %s / %s", order.ID, deletedID)
	}
	if len(events.events) != 1 || events.events[0].Name != "order.deleted" {
		t.Fatalf("expected order.deleted event, got %+v", events.events)
	}
}

func TestOrderServiceListOrdersFilter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	var requested repositories.OrderListQuery
	orders := []domain.Order{
		{ID: "ord_1", BuyerName: "Sari Dewi", PhoneNumber: "+62-812-0001", CreatedAt: now},
		{ID: "ord_2", BuyerName: "Budi", PhoneNumber: "+62-811-9999", CreatedAt: now.Add(-time.Minute)},
		{ID: "ord_3", BuyerName: "Dewi Lestari", PhoneNumber: "+62-813-5555", CreatedAt: now.Add(-2 * time.Minute)},
	}

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			listFn: func(_ context.Context, query repositories.OrderListQuery) ([]domain.Order, error) {
				requested = query
				return orders, nil
			},
		},
	})

	got, err := svc.ListOrders(ctx, OrderListFilter{FilterText: "dewi"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if requested.Limit != maxOrderListLimit {
		t.Fatalf("filtered listing should widen the fetch window, got limit %d", requested.Limit)
	}
	if len(got) != 2 || got[0].ID != "ord_1" || got[1].ID != "ord_3" {
		t.Fatalf("unexpected filtered result: %+v", got)
	}
}

func TestOrderServiceListOrdersFilterIsLiteral(t *testing.T) {
	ctx := context.Background()
	orders := []domain.Order{
		{ID: "ord_1", BuyerName: "Sari", PhoneNumber: "+62-812-0001"},
		{ID: "ord_2", BuyerName: "literal .* name", PhoneNumber: "+62-811-9999"},
	}

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			listFn: func(context.Context, repositories.OrderListQuery) ([]domain.Order, error) {
				return orders, nil
			},
		},
	})

	got, err := svc.ListOrders(ctx, OrderListFilter{FilterText: ".*"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ord_2" {
		t.Fatalf("filter text should match literally, got %+v", got)
	}
}

func TestOrderServiceListOrdersLimitClamping(t *testing.T) {
	ctx := context.Background()
	var requested repositories.OrderListQuery

	svc := newOrderServiceForTest(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			listFn: func(_ context.Context, query repositories.OrderListQuery) ([]domain.Order, error) {
				requested = query
				return nil, nil
			},
		},
	})

	cases := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: defaultOrderListLimit},
		{limit: -5, want: 1},
		{limit: 25, want: 25},
		{limit: 9000, want: maxOrderListLimit},
	}
	for _, tc := range cases {
		if _, err := svc.ListOrders(ctx, OrderListFilter{Limit: tc.limit}); err != nil {
			t.Fatalf("list with limit %d: %v", tc.limit, err)
		}
		if requested.Limit != tc.want {
			t.Fatalf("limit %d: expected fetch limit %d got %d", tc.limit, tc.want, requested.Limit)
		}
	}
}
