package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/petalworks/api/internal/services"
)

type stubCustomerService struct {
	createFn func(context.Context, services.CreateCustomerCommand) (services.Customer, error)
	getFn    func(context.Context, string) (services.Customer, error)
	listFn   func(context.Context, int) ([]services.Customer, error)
	updateFn func(context.Context, services.UpdateCustomerCommand) (services.Customer, error)
	deleteFn func(context.Context, string) error
}

func (s *stubCustomerService) CreateCustomer(ctx context.Context, cmd services.CreateCustomerCommand) (services.Customer, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Customer{}, nil
}

func (s *stubCustomerService) GetCustomer(ctx context.Context, customerID string) (services.Customer, error) {
	if s.getFn != nil {
		return s.getFn(ctx, customerID)
	}
	return services.Customer{}, nil
}

func (s *stubCustomerService) ListCustomers(ctx context.Context, limit int) ([]services.Customer, error) {
	if s.listFn != nil {
		return s.listFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubCustomerService) UpdateCustomer(ctx context.Context, cmd services.UpdateCustomerCommand) (services.Customer, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Customer{}, nil
}

func (s *stubCustomerService) DeleteCustomer(ctx context.Context, customerID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, customerID)
	}
	return nil
}

var _ services.CustomerService = (*stubCustomerService)(nil)

func customerRouterForTest(svc services.CustomerService) chi.Router {
	r := chi.NewRouter()
	NewCustomerHandlers(svc).Routes(r)
	return r
}

func TestCustomerHandlersCreateCustomer(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	router := customerRouterForTest(&stubCustomerService{
		createFn: func(_ context.Context, cmd services.CreateCustomerCommand) (services.Customer, error) {
			return services.Customer{ID: "cus_1", Name: cmd.Name, Phone: cmd.Phone, CreatedAt: now, UpdatedAt: now}, nil
		},
	})

	body := `{"name":"Budi","phone":"+62-811-9999"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Customer struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Customer.ID != "cus_1" || resp.Customer.Name != "Budi" {
		t.Fatalf("unexpected payload %+v", resp.Customer)
	}
}

func TestCustomerHandlersMissingFieldCode(t *testing.T) {
	router := customerRouterForTest(&stubCustomerService{
		createFn: func(context.Context, services.CreateCustomerCommand) (services.Customer, error) {
			return services.Customer{}, fmt.Errorf("%w: name is required", services.ErrCustomerMissingField)
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"phone":"1"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "missing_field" {
		t.Fatalf("expected missing_field, got %v", resp["error"])
	}
}

func TestCustomerHandlersGetCustomerNotFound(t *testing.T) {
	router := customerRouterForTest(&stubCustomerService{
		getFn: func(context.Context, string) (services.Customer, error) {
			return services.Customer{}, fmt.Errorf("%w: cus_missing", services.ErrCustomerNotFound)
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/cus_missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCustomerHandlersDeleteCustomer(t *testing.T) {
	var deletedID string
	router := customerRouterForTest(&stubCustomerService{
		deleteFn: func(_ context.Context, customerID string) error {
			deletedID = customerID
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/cus_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if deletedID != "cus_1" {
		t.Fatalf("expected cus_1 deleted, got %q", deletedID)
	}
}
