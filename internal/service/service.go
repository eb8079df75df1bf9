package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"manware/pos/internal/cache"
	"manware/pos/internal/domain"
	"manware/pos/internal/store"
)

const persistTimeout = 5 * time.Second

// walkInCustomer names sales made without a registered customer account.
const walkInCustomer = "Walk-in Customer"

// SyncErrorHandler observes failures of the background persistence writes.
// op names the write that failed ("save product", "save sales", ...).
type SyncErrorHandler func(op string, err error)

// Service owns the shop's working state. All products, sales, and customers
// live in memory under one lock and every operation completes against that
// state; the repository and catalog cache are synced best-effort afterwards
// so a dead database or cache never blocks the counter.
type Service struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	sales     []domain.Sale
	customers map[string]*domain.Customer

	repo       store.Repository
	catalog    cache.CatalogCache
	catalogTTL time.Duration

	syncErr SyncErrorHandler

	now   func() time.Time
	newID func() string
}

func New(repo store.Repository, catalog cache.CatalogCache, catalogTTL time.Duration) *Service {
	return &Service{
		products:   make(map[string]*domain.Product),
		customers:  make(map[string]*domain.Customer),
		repo:       repo,
		catalog:    catalog,
		catalogTTL: catalogTTL,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// SetSyncErrorHandler installs the observer for background write failures.
// Without one, failures are dropped silently.
func (s *Service) SetSyncErrorHandler(h SyncErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncErr = h
}

// Hydrate loads the remote snapshot into memory. A repository that reports
// store.ErrUnavailable leaves the service empty and offline, which is not
// an error.
func (s *Service) Hydrate(ctx context.Context) error {
	products, err := s.repo.LoadProducts(ctx)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return nil
		}
		return err
	}
	sales, err := s.repo.LoadSales(ctx)
	if err != nil && !errors.Is(err, store.ErrUnavailable) {
		return err
	}
	customers, err := s.repo.LoadCustomers(ctx)
	if err != nil && !errors.Is(err, store.ErrUnavailable) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range products {
		p := products[i]
		s.products[p.ID] = &p
	}
	s.sales = append(s.sales[:0], sales...)
	sort.SliceStable(s.sales, func(i, j int) bool {
		return s.sales[i].Date.After(s.sales[j].Date)
	})
	for i := range customers {
		c := customers[i]
		s.customers[c.ID] = &c
	}
	return nil
}

type actorContextKey struct{}

// WithActor attaches the authenticated staff member or customer to the
// request context so mutations can stamp who performed them.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

func actorName(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.Username != "" {
		return actor.Username
	}
	return "unknown"
}

func (s *Service) reportSyncError(op string, err error) {
	s.mu.Lock()
	h := s.syncErr
	s.mu.Unlock()
	if h != nil && err != nil {
		h(op, err)
	}
}

// Persistence helpers run off the request path. Each takes value copies so
// the goroutine never touches live state.

func (s *Service) persistProduct(p domain.Product) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.SaveProduct(ctx, p); err != nil {
			s.reportSyncError("save product", err)
		}
	}()
}

func (s *Service) persistProducts(products []domain.Product) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.SaveProducts(ctx, products); err != nil {
			s.reportSyncError("save products", err)
		}
	}()
}

func (s *Service) persistSale(sale domain.Sale) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.SaveSale(ctx, sale); err != nil {
			s.reportSyncError("save sale", err)
		}
	}()
}

func (s *Service) persistSales(sales []domain.Sale) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.SaveSales(ctx, sales); err != nil {
			s.reportSyncError("save sales", err)
		}
	}()
}

func (s *Service) persistCustomer(c domain.Customer) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.SaveCustomer(ctx, c); err != nil {
			s.reportSyncError("save customer", err)
		}
	}()
}

func (s *Service) persistDeleteProduct(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.repo.DeleteProduct(ctx, id); err != nil {
			s.reportSyncError("delete product", err)
		}
	}()
}

func (s *Service) invalidateCatalog() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.catalog.Invalidate(ctx); err != nil {
			s.reportSyncError("invalidate catalog", err)
		}
	}()
}

// Products returns a snapshot of the full inventory, newest additions first.
func (s *Service) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, cloneProduct(*p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateAdded.Equal(out[j].DateAdded) {
			return out[i].DateAdded.After(out[j].DateAdded)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) Product(id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}
	return cloneProduct(*p), nil
}

// Sales returns a snapshot of every sale row, newest first.
func (s *Service) Sales() []domain.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Sale, len(s.sales))
	copy(out, s.sales)
	return out
}

func (s *Service) Customers() []domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, cloneCustomer(*c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Service) Customer(id string) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, ErrNotFound
	}
	return cloneCustomer(*c), nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, ErrEmptyOperation
	}

	customer := domain.Customer{
		ID:          s.newID(),
		Name:        name,
		Phone:       strings.TrimSpace(req.Phone),
		Email:       strings.TrimSpace(req.Email),
		Preferences: []string{},
	}

	s.mu.Lock()
	s.customers[customer.ID] = &customer
	snapshot := cloneCustomer(customer)
	s.mu.Unlock()

	s.persistCustomer(snapshot)
	return snapshot, nil
}

func cloneProduct(p domain.Product) domain.Product {
	history := make([]domain.StockHistoryEntry, len(p.History))
	copy(history, p.History)
	p.History = history
	return p
}

func cloneCustomer(c domain.Customer) domain.Customer {
	prefs := make([]string, len(c.Preferences))
	copy(prefs, c.Preferences)
	c.Preferences = prefs
	return c
}
