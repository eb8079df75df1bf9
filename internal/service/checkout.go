package service

import (
	"context"
	"fmt"
	"strings"

	"manware/pos/internal/domain"
	"manware/pos/internal/pricing"
)

// storefrontSalesman is stamped on orders booked through the public shop.
const storefrontSalesman = "Online Shop"

// shortCode derives the human-facing order code shared by every line of a
// checkout. Eight characters is enough to read off a receipt.
func (s *Service) shortCode() string {
	return strings.ToUpper(strings.ReplaceAll(s.newID(), "-", "")[:8])
}

// mergeLines folds duplicate product lines into one, keeping first-seen
// order, so a cart with the same product twice reserves stock once.
func mergeLines(lines []domain.CartLine) []domain.CartLine {
	merged := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if at, ok := index[line.ProductID]; ok {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// Checkout books an order: it validates every line against current stock,
// then deducts all of them and writes one PENDING sale row per line under a
// shared transaction code. If any line fails, no stock moves at all.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	if len(req.Lines) == 0 {
		return domain.CheckoutResponse{}, fmt.Errorf("cart is empty: %w", ErrEmptyOperation)
	}
	lines := mergeLines(req.Lines)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return domain.CheckoutResponse{}, fmt.Errorf("quantity for %s must be positive: %w", line.ProductID, ErrEmptyOperation)
		}
	}

	salesman := strings.TrimSpace(req.Salesman)
	if salesman == "" {
		salesman = actorName(ctx)
	}

	s.mu.Lock()

	// Validate everything before touching stock.
	targets := make([]*domain.Product, len(lines))
	for i, line := range lines {
		p, ok := s.products[line.ProductID]
		if !ok {
			s.mu.Unlock()
			return domain.CheckoutResponse{}, fmt.Errorf("product %s: %w", line.ProductID, ErrNotFound)
		}
		if p.StockQuantity < line.Quantity {
			s.mu.Unlock()
			return domain.CheckoutResponse{}, fmt.Errorf("%s has %d in stock, %d requested: %w",
				p.DisplayName(), p.StockQuantity, line.Quantity, ErrInsufficientStock)
		}
		targets[i] = p
	}

	customerID := ""
	customerName := walkInCustomer
	if req.CustomerID != "" {
		c, ok := s.customers[req.CustomerID]
		if !ok {
			s.mu.Unlock()
			return domain.CheckoutResponse{}, fmt.Errorf("customer %s: %w", req.CustomerID, ErrNotFound)
		}
		customerID = c.ID
		customerName = c.Name
	}

	tx := s.shortCode()
	now := s.now()
	stockNote := fmt.Sprintf("Order %s (Pending Payment)", tx)

	resp := domain.CheckoutResponse{
		TransactionID: tx,
		Date:          now,
		CustomerName:  customerName,
		Salesman:      salesman,
		Items:         make([]domain.ReceiptLine, 0, len(lines)),
	}
	newSales := make([]domain.Sale, 0, len(lines))
	touched := make([]domain.Product, 0, len(lines))

	for i, line := range lines {
		p := targets[i]
		s.appendStockEntry(p, domain.StockEntrySale, -line.Quantity, stockNote)
		touched = append(touched, cloneProduct(*p))

		lineTotal := p.SellingPrice * float64(line.Quantity)
		_, lineTax := pricing.TaxSplit(lineTotal, p.TaxRate)

		newSales = append(newSales, domain.Sale{
			ID:                s.newID(),
			TransactionID:     tx,
			ProductID:         p.ID,
			ProductName:       p.DisplayName(),
			Quantity:          line.Quantity,
			TotalPrice:        lineTotal,
			TaxAmount:         lineTax,
			Salesman:          salesman,
			CustomerID:        customerID,
			CustomerName:      customerName,
			Date:              now,
			PaymentStatus:     domain.PaymentPending,
			FulfillmentStatus: domain.FulfillmentNew,
		})
		resp.Items = append(resp.Items, domain.ReceiptLine{
			ProductID:   p.ID,
			ProductName: p.DisplayName(),
			Quantity:    line.Quantity,
			UnitPrice:   p.SellingPrice,
			TotalPrice:  lineTotal,
			TaxAmount:   lineTax,
		})
		resp.TotalAmount += lineTotal
		resp.TotalTax += lineTax
	}

	// Newest rows first, matching the sales listing order.
	s.sales = append(newSales, s.sales...)
	s.mu.Unlock()

	s.persistProducts(touched)
	s.persistSales(newSales)
	s.invalidateCatalog()
	return resp, nil
}

// BookOrder is the storefront checkout. The visitor books under their name
// and phone; the order lands in the cashier queue like any counter sale.
func (s *Service) BookOrder(ctx context.Context, req domain.BookingRequest) (domain.CheckoutResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CheckoutResponse{}, fmt.Errorf("customer name is required: %w", ErrEmptyOperation)
	}

	customerID := ""
	s.mu.Lock()
	for _, c := range s.customers {
		if c.Phone != "" && c.Phone == strings.TrimSpace(req.Phone) {
			customerID = c.ID
			break
		}
	}
	s.mu.Unlock()

	resp, err := s.Checkout(ctx, domain.CheckoutRequest{
		Lines:      req.Lines,
		CustomerID: customerID,
		Salesman:   storefrontSalesman,
	})
	if err != nil {
		return domain.CheckoutResponse{}, err
	}
	if customerID == "" {
		resp.CustomerName = name
		s.renameOrderCustomer(resp.TransactionID, name)
	}
	return resp, nil
}

// renameOrderCustomer stamps a guest booking's name onto its sale rows
// after the shared checkout path has written them as walk-in.
func (s *Service) renameOrderCustomer(tx, name string) {
	s.mu.Lock()
	renamed := make([]domain.Sale, 0, 4)
	for i := range s.sales {
		if s.sales[i].TransactionID == tx {
			s.sales[i].CustomerName = name
			renamed = append(renamed, s.sales[i])
		}
	}
	s.mu.Unlock()
	if len(renamed) > 0 {
		s.persistSales(renamed)
	}
}
