package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/petalworks/api/internal/repositories"
)

const customerIDPrefix = "cus_"

var (
	// ErrCustomerMissingField signals a required customer field was empty.
	ErrCustomerMissingField = errors.New("customer: missing required field")
	// ErrCustomerNotFound indicates the customer could not be located.
	ErrCustomerNotFound = errors.New("customer: not found")
	// ErrCustomerInvalidInput signals the caller provided malformed input.
	ErrCustomerInvalidInput = errors.New("customer: invalid input")
	// ErrCustomerConflict indicates a duplicate identifier or conflicting write.
	ErrCustomerConflict = errors.New("customer: conflict")
)

// CustomerServiceDeps bundles collaborators required to construct the customer service.
type CustomerServiceDeps struct {
	Customers   repositories.CustomerRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type customerService struct {
	customers repositories.CustomerRepository
	clock     func() time.Time
	newID     func() string
}

// NewCustomerService wires dependencies into a concrete CustomerService implementation.
func NewCustomerService(deps CustomerServiceDeps) (CustomerService, error) {
	if deps.Customers == nil {
		return nil, errors.New("customer service: customer repository is required")
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

	return &customerService{
		customers: deps.Customers,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, cmd CreateCustomerCommand) (Customer, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Customer{}, fmt.Errorf("%w: name is required", ErrCustomerMissingField)
	}
	phone := strings.TrimSpace(cmd.Phone)
	if phone == "" {
		return Customer{}, fmt.Errorf("%w: phone is required", ErrCustomerMissingField)
	}

	now := s.clock()
	customer := Customer{
		ID:        customerIDPrefix + s.newID(),
		Name:      name,
		Phone:     phone,
		Address:   strings.TrimSpace(cmd.Address),
		Notes:     strings.TrimSpace(cmd.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.customers.Insert(ctx, customer); err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}
	return customer, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID string) (Customer, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return Customer{}, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, limit int) ([]Customer, error) {
	if limit <= 0 {
		limit = defaultOrderListLimit
	}
	if limit > maxOrderListLimit {
		limit = maxOrderListLimit
	}
	customers, err := s.customers.ListRecent(ctx, limit)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return customers, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, cmd UpdateCustomerCommand) (Customer, error) {
	customerID := strings.TrimSpace(cmd.CustomerID)
	if customerID == "" {
		return Customer{}, fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}

	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return Customer{}, fmt.Errorf("%w: name is required", ErrCustomerMissingField)
		}
		customer.Name = name
	}
	if cmd.Phone != nil {
		phone := strings.TrimSpace(*cmd.Phone)
		if phone == "" {
			return Customer{}, fmt.Errorf("%w: phone is required", ErrCustomerMissingField)
		}
		customer.Phone = phone
	}
	if cmd.Address != nil {
		customer.Address = strings.TrimSpace(*cmd.Address)
	}
	if cmd.Notes != nil {
		customer.Notes = strings.TrimSpace(*cmd.Notes)
	}
	customer.UpdatedAt = s.clock()

	if err := s.customers.Update(ctx, customer); err != nil {
		return Customer{}, s.mapRepositoryError(err)
	}
	return customer, nil
}

// DeleteCustomer removes the customer record. Orders that linked the customer
// keep their buyer snapshots; the reference is weak.
func (s *customerService) DeleteCustomer(ctx context.Context, customerID string) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return fmt.Errorf("%w: customer id is required", ErrCustomerInvalidInput)
	}
	if err := s.customers.Delete(ctx, customerID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *customerService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCustomerNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCustomerConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("customer: repository unavailable: %w", err)
		}
	}

	return err
}
