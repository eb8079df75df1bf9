package store

import (
	"context"
	"errors"

	"manware/pos/internal/domain"
)

// ErrUnavailable is returned by Load* when no remote store is reachable.
// The service treats it as "start empty, stay offline" rather than a failure.
var ErrUnavailable = errors.New("store unavailable")

// Repository is the remote persistence collaborator. The service applies
// every mutation to its in-memory collections first and calls these methods
// as a best-effort sync afterwards; none of them gate a state transition.
type Repository interface {
	LoadProducts(ctx context.Context) ([]domain.Product, error)
	LoadSales(ctx context.Context) ([]domain.Sale, error)
	LoadCustomers(ctx context.Context) ([]domain.Customer, error)
	SaveProduct(ctx context.Context, product domain.Product) error
	SaveProducts(ctx context.Context, products []domain.Product) error
	SaveSale(ctx context.Context, sale domain.Sale) error
	SaveSales(ctx context.Context, sales []domain.Sale) error
	SaveCustomer(ctx context.Context, customer domain.Customer) error
	DeleteProduct(ctx context.Context, productID string) error
}

// Noop backs pure-offline operation: loads report unavailable, writes
// succeed silently. In-memory state remains the source of truth.
type Noop struct{}

func (Noop) LoadProducts(context.Context) ([]domain.Product, error)   { return nil, ErrUnavailable }
func (Noop) LoadSales(context.Context) ([]domain.Sale, error)         { return nil, ErrUnavailable }
func (Noop) LoadCustomers(context.Context) ([]domain.Customer, error) { return nil, ErrUnavailable }
func (Noop) SaveProduct(context.Context, domain.Product) error        { return nil }
func (Noop) SaveProducts(context.Context, []domain.Product) error     { return nil }
func (Noop) SaveSale(context.Context, domain.Sale) error              { return nil }
func (Noop) SaveSales(context.Context, []domain.Sale) error           { return nil }
func (Noop) SaveCustomer(context.Context, domain.Customer) error      { return nil }
func (Noop) DeleteProduct(context.Context, string) error              { return nil }
