package service

import (
	"context"
	"fmt"

	"manware/pos/internal/domain"
)

// ReturnSaleItem takes back part or all of one sale line. The original row
// keeps its figures and only accrues ReturnedQuantity; the refund itself is
// a compensating sale row with negative quantity and totals under the same
// transaction code, so ledger sums stay honest.
func (s *Service) ReturnSaleItem(ctx context.Context, saleID string, req domain.ReturnRequest) (domain.Sale, error) {
	if req.Quantity <= 0 {
		return domain.Sale{}, fmt.Errorf("return quantity must be positive: %w", ErrEmptyOperation)
	}

	s.mu.Lock()

	var orig *domain.Sale
	for i := range s.sales {
		if s.sales[i].ID == saleID {
			orig = &s.sales[i]
			break
		}
	}
	if orig == nil {
		s.mu.Unlock()
		return domain.Sale{}, ErrNotFound
	}
	if orig.Quantity <= 0 {
		s.mu.Unlock()
		return domain.Sale{}, fmt.Errorf("sale %s is itself a return: %w", saleID, ErrInvalidTransition)
	}
	if orig.ReturnedQuantity+req.Quantity > orig.Quantity {
		s.mu.Unlock()
		return domain.Sale{}, fmt.Errorf("%d of %d already returned, %d more requested: %w",
			orig.ReturnedQuantity, orig.Quantity, req.Quantity, ErrOverReturn)
	}

	// Per-unit figures come from the original quantity so partial returns
	// refund the same amount per unit no matter how they are split up.
	unitPrice := orig.TotalPrice / float64(orig.Quantity)
	unitTax := orig.TaxAmount / float64(orig.Quantity)
	refund := unitPrice * float64(req.Quantity)
	refundTax := unitTax * float64(req.Quantity)

	now := s.now()
	orig.ReturnedQuantity += req.Quantity

	returnRow := domain.Sale{
		ID:                s.newID(),
		TransactionID:     orig.TransactionID,
		ProductID:         orig.ProductID,
		ProductName:       "RETURN: " + orig.ProductName,
		Quantity:          -req.Quantity,
		TotalPrice:        -refund,
		TaxAmount:         -refundTax,
		Salesman:          orig.Salesman,
		CustomerID:        orig.CustomerID,
		CustomerName:      orig.CustomerName,
		Date:              now,
		PaymentStatus:     domain.PaymentPaid,
		PaymentMethod:     domain.PayCash,
		PaymentDate:       &now,
		CashierName:       actorName(ctx),
		FulfillmentStatus: domain.FulfillmentCompleted,
	}
	s.sales = append([]domain.Sale{returnRow}, s.sales...)

	var restoredProduct *domain.Product
	if p, ok := s.products[orig.ProductID]; ok {
		s.appendStockEntry(p, domain.StockEntryReturn, req.Quantity, "Return from "+orig.CustomerName)
		snap := cloneProduct(*p)
		restoredProduct = &snap
	}

	var customerSnapshot *domain.Customer
	if orig.PaymentStatus == domain.PaymentPaid && orig.CustomerID != "" {
		if c, ok := s.customers[orig.CustomerID]; ok {
			c.TotalSpent -= refund
			snap := cloneCustomer(*c)
			customerSnapshot = &snap
		}
	}

	origSnapshot := *orig
	s.mu.Unlock()

	s.persistSales([]domain.Sale{origSnapshot, returnRow})
	if restoredProduct != nil {
		s.persistProduct(*restoredProduct)
		s.invalidateCatalog()
	}
	if customerSnapshot != nil {
		s.persistCustomer(*customerSnapshot)
	}
	return returnRow, nil
}
