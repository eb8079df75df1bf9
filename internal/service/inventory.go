package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"manware/pos/internal/domain"
	"manware/pos/internal/pricing"
)

// appendStockEntry mutates the product's stock level and records the
// matching audit line. Callers hold s.mu and have already validated the
// change, so the resulting level is never negative.
func (s *Service) appendStockEntry(p *domain.Product, entryType domain.StockEntryType, change int, note string) {
	p.StockQuantity += change
	p.History = append(p.History, domain.StockHistoryEntry{
		ID:             s.newID(),
		Date:           s.now(),
		Type:           entryType,
		QuantityChange: change,
		NewStockLevel:  p.StockQuantity,
		Note:           note,
	})
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		return domain.Product{}, fmt.Errorf("brand is required: %w", ErrEmptyOperation)
	}
	if !req.Type.Valid() {
		return domain.Product{}, fmt.Errorf("unknown product type %q: %w", req.Type, ErrEmptyOperation)
	}
	if req.InitialStock < 0 {
		return domain.Product{}, fmt.Errorf("initial stock must not be negative: %w", ErrEmptyOperation)
	}
	if req.CostCfa < 0 || req.ExchangeRate < 0 || req.ProfitMargin < 0 {
		return domain.Product{}, fmt.Errorf("cost figures must not be negative: %w", ErrEmptyOperation)
	}

	breakdown := pricing.Compute(req.CostCfa, req.ExchangeRate, req.ServiceRatePct, req.MiscRatePct, req.ProfitMargin, req.TaxRatePct)

	product := domain.Product{
		ID:            s.newID(),
		Brand:         brand,
		Type:          req.Type,
		Color:         strings.TrimSpace(req.Color),
		Model:         strings.TrimSpace(req.Model),
		Size:          strings.TrimSpace(req.Size),
		CostCfa:       req.CostCfa,
		ExchangeRate:  req.ExchangeRate,
		CostGhsBase:   breakdown.BaseCostGhs,
		ServiceCharge: breakdown.ServiceCharge,
		MiscCharge:    breakdown.MiscCharge,
		ProfitMargin:  req.ProfitMargin,
		TaxRate:       req.TaxRatePct,
		SellingPrice:  breakdown.FinalPrice,
		DateAdded:     s.now(),
		History:       []domain.StockHistoryEntry{},
	}

	s.mu.Lock()
	s.appendStockEntry(&product, domain.StockEntryInitial, req.InitialStock, "Initial stock")
	s.products[product.ID] = &product
	snapshot := cloneProduct(product)
	s.mu.Unlock()

	s.persistProduct(snapshot)
	s.invalidateCatalog()
	return snapshot, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrNotFound
	}

	if req.Brand != nil {
		brand := strings.TrimSpace(*req.Brand)
		if brand == "" {
			return domain.Product{}, fmt.Errorf("brand is required: %w", ErrEmptyOperation)
		}
		p.Brand = brand
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return domain.Product{}, fmt.Errorf("unknown product type %q: %w", *req.Type, ErrEmptyOperation)
		}
		p.Type = *req.Type
	}
	if req.Color != nil {
		p.Color = strings.TrimSpace(*req.Color)
	}
	if req.Model != nil {
		p.Model = strings.TrimSpace(*req.Model)
	}
	if req.Size != nil {
		p.Size = strings.TrimSpace(*req.Size)
	}

	// Current charge rates are recovered from the stored GHS amounts so a
	// partial cost update keeps the untouched rates.
	serviceRate := ratePct(p.ServiceCharge, p.CostGhsBase)
	miscRate := ratePct(p.MiscCharge, p.CostGhsBase)
	costChanged := false

	if req.CostCfa != nil {
		p.CostCfa = *req.CostCfa
		costChanged = true
	}
	if req.ExchangeRate != nil {
		p.ExchangeRate = *req.ExchangeRate
		costChanged = true
	}
	if req.ServiceRatePct != nil {
		serviceRate = *req.ServiceRatePct
		costChanged = true
	}
	if req.MiscRatePct != nil {
		miscRate = *req.MiscRatePct
		costChanged = true
	}
	if req.ProfitMargin != nil {
		p.ProfitMargin = *req.ProfitMargin
		costChanged = true
	}
	if req.TaxRatePct != nil {
		p.TaxRate = *req.TaxRatePct
		costChanged = true
	}

	if costChanged {
		breakdown := pricing.Compute(p.CostCfa, p.ExchangeRate, serviceRate, miscRate, p.ProfitMargin, p.TaxRate)
		p.CostGhsBase = breakdown.BaseCostGhs
		p.ServiceCharge = breakdown.ServiceCharge
		p.MiscCharge = breakdown.MiscCharge
		p.SellingPrice = breakdown.FinalPrice
	}

	snapshot := cloneProduct(*p)
	s.persistProduct(snapshot)
	s.invalidateCatalog()
	return snapshot, nil
}

func ratePct(amount, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return amount / base * 100
}

// SetStock forces a product to an absolute level and records the difference
// as a manual edit. Setting the current level again records nothing.
func (s *Service) SetStock(ctx context.Context, id string, req domain.StockSetRequest) (domain.Product, error) {
	if req.Quantity < 0 {
		return domain.Product{}, fmt.Errorf("stock level must not be negative: %w", ErrEmptyOperation)
	}

	s.mu.Lock()
	p, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return domain.Product{}, ErrNotFound
	}

	diff := req.Quantity - p.StockQuantity
	if diff == 0 {
		snapshot := cloneProduct(*p)
		s.mu.Unlock()
		return snapshot, nil
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = "Manual stock edit"
	}
	s.appendStockEntry(p, domain.StockEntryManualEdit, diff, note)
	snapshot := cloneProduct(*p)
	s.mu.Unlock()

	s.persistProduct(snapshot)
	s.invalidateCatalog()
	return snapshot, nil
}

func (s *Service) Restock(ctx context.Context, id string, req domain.RestockRequest) (domain.Product, error) {
	if req.Quantity <= 0 {
		return domain.Product{}, fmt.Errorf("restock quantity must be positive: %w", ErrEmptyOperation)
	}

	s.mu.Lock()
	p, ok := s.products[id]
	if !ok {
		s.mu.Unlock()
		return domain.Product{}, ErrNotFound
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = "Restock"
	}
	s.appendStockEntry(p, domain.StockEntryRestock, req.Quantity, note)
	snapshot := cloneProduct(*p)
	s.mu.Unlock()

	s.persistProduct(snapshot)
	s.invalidateCatalog()
	return snapshot, nil
}

// BulkUpdateStock applies one stock change across many products. SET forces
// the given level; ADD shifts by the given amount, clamping at zero.
// Products whose level would not change are skipped without an audit line.
func (s *Service) BulkUpdateStock(ctx context.Context, req domain.BulkStockRequest) ([]domain.Product, error) {
	if len(req.ProductIDs) == 0 {
		return nil, fmt.Errorf("no products selected: %w", ErrEmptyOperation)
	}
	if req.Mode != domain.BulkStockSet && req.Mode != domain.BulkStockAdd {
		return nil, fmt.Errorf("unknown bulk mode %q: %w", req.Mode, ErrEmptyOperation)
	}
	if req.Mode == domain.BulkStockSet && req.Value < 0 {
		return nil, fmt.Errorf("stock level must not be negative: %w", ErrEmptyOperation)
	}

	note := strings.TrimSpace(req.Reason)
	if note == "" {
		note = "Bulk stock update"
	}

	s.mu.Lock()
	targets := make([]*domain.Product, 0, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		p, ok := s.products[id]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		targets = append(targets, p)
	}

	updated := make([]domain.Product, 0, len(targets))
	for _, p := range targets {
		var diff int
		switch req.Mode {
		case domain.BulkStockSet:
			diff = req.Value - p.StockQuantity
		case domain.BulkStockAdd:
			next := p.StockQuantity + req.Value
			if next < 0 {
				next = 0
			}
			diff = next - p.StockQuantity
		}
		if diff == 0 {
			continue
		}
		s.appendStockEntry(p, domain.StockEntryBulkEdit, diff, note)
		updated = append(updated, cloneProduct(*p))
	}
	s.mu.Unlock()

	if len(updated) > 0 {
		s.persistProducts(updated)
		s.invalidateCatalog()
	}
	return updated, nil
}

// BulkUpdatePricing rewrites the profit margin and/or tax rate across many
// products and re-derives each selling price from its stored cost parts.
func (s *Service) BulkUpdatePricing(ctx context.Context, req domain.BulkPricingRequest) ([]domain.Product, error) {
	if len(req.ProductIDs) == 0 {
		return nil, fmt.Errorf("no products selected: %w", ErrEmptyOperation)
	}
	if req.ProfitMargin == nil && req.TaxRatePct == nil {
		return nil, fmt.Errorf("nothing to change: %w", ErrEmptyOperation)
	}

	s.mu.Lock()
	targets := make([]*domain.Product, 0, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		p, ok := s.products[id]
		if !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		targets = append(targets, p)
	}

	updated := make([]domain.Product, 0, len(targets))
	for _, p := range targets {
		if req.ProfitMargin != nil {
			p.ProfitMargin = *req.ProfitMargin
		}
		if req.TaxRatePct != nil {
			p.TaxRate = *req.TaxRatePct
		}
		p.SellingPrice = pricing.Recompute(p.CostGhsBase, p.ServiceCharge, p.MiscCharge, p.ProfitMargin, p.TaxRate)
		updated = append(updated, cloneProduct(*p))
	}
	s.mu.Unlock()

	s.persistProducts(updated)
	s.invalidateCatalog()
	return updated, nil
}

// DeleteProduct removes a product that no sale row references. Products
// with sales history stay, since deleting them would orphan the ledger.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.products[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for i := range s.sales {
		if s.sales[i].ProductID == id {
			s.mu.Unlock()
			return fmt.Errorf("product %s is referenced by sales: %w", id, ErrInvalidTransition)
		}
	}
	delete(s.products, id)
	s.mu.Unlock()

	s.persistDeleteProduct(id)
	s.invalidateCatalog()
	return nil
}

// ProductHistory returns the product's audit trail, newest entry first.
func (s *Service) ProductHistory(id string) ([]domain.StockHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]domain.StockHistoryEntry, len(p.History))
	copy(out, p.History)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// LowStockProducts lists products at or below the given stock level,
// lowest first, for the reorder screen.
func (s *Service) LowStockProducts(threshold int) []domain.Product {
	if threshold < 0 {
		threshold = 0
	}
	s.mu.Lock()
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.StockQuantity <= threshold {
			out = append(out, cloneProduct(*p))
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StockQuantity != out[j].StockQuantity {
			return out[i].StockQuantity < out[j].StockQuantity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// StorefrontCatalog returns the in-stock products shown to shop visitors,
// served from the catalog cache when warm. query matches against the
// display name, model, and size; productType narrows to one type. Filters
// apply after the cache so one snapshot serves every search.
func (s *Service) StorefrontCatalog(ctx context.Context, query string, productType domain.ProductType) ([]domain.Product, error) {
	snapshot, ok, err := s.catalog.Get(ctx)
	if err != nil {
		s.reportSyncError("read catalog", err)
		ok = false
	}
	if !ok {
		s.mu.Lock()
		snapshot = make([]domain.Product, 0, len(s.products))
		for _, p := range s.products {
			if p.StockQuantity > 0 {
				snapshot = append(snapshot, cloneProduct(*p))
			}
		}
		s.mu.Unlock()

		sort.Slice(snapshot, func(i, j int) bool {
			if !snapshot[i].DateAdded.Equal(snapshot[j].DateAdded) {
				return snapshot[i].DateAdded.After(snapshot[j].DateAdded)
			}
			return snapshot[i].ID < snapshot[j].ID
		})

		if err := s.catalog.Set(ctx, snapshot, s.catalogTTL); err != nil {
			s.reportSyncError("write catalog", err)
		}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" && productType == "" {
		return snapshot, nil
	}
	out := make([]domain.Product, 0, len(snapshot))
	for _, p := range snapshot {
		if productType != "" && p.Type != productType {
			continue
		}
		if query != "" {
			haystack := strings.ToLower(p.DisplayName() + " " + p.Model + " " + p.Size)
			if !strings.Contains(haystack, query) {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}
