package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"manware/pos/internal/domain"
)

// GroupSales folds sale rows into logical orders keyed by transaction code.
// Rows keep their relative order inside each group; groups are sorted by
// their first row's date, newest first.
func GroupSales(sales []domain.Sale) []domain.OrderGroup {
	groups := make([]domain.OrderGroup, 0)
	index := make(map[string]int)
	for _, sale := range sales {
		at, ok := index[sale.TransactionID]
		if !ok {
			at = len(groups)
			index[sale.TransactionID] = at
			groups = append(groups, domain.OrderGroup{TransactionID: sale.TransactionID})
		}
		groups[at].Lines = append(groups[at].Lines, sale)
		groups[at].Total += sale.TotalPrice
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Lines[0].Date.After(groups[j].Lines[0].Date)
	})
	return groups
}

// Order views for the counter screens. "pending" is the cashier payment
// queue, "board" the fulfillment board of paid orders being worked, and
// "completed" the pickup archive.
const (
	ViewAll       = "all"
	ViewPending   = "pending"
	ViewBoard     = "board"
	ViewCompleted = "completed"
)

func (s *Service) Orders(view string) ([]domain.OrderGroup, error) {
	groups := GroupSales(s.Sales())
	switch view {
	case "", ViewAll:
		return groups, nil
	case ViewPending:
		return filterGroups(groups, func(g domain.OrderGroup) bool {
			return leadLine(g).PaymentStatus == domain.PaymentPending
		}), nil
	case ViewBoard:
		return filterGroups(groups, func(g domain.OrderGroup) bool {
			lead := leadLine(g)
			if lead.PaymentStatus != domain.PaymentPaid {
				return false
			}
			return lead.FulfillmentStatus == domain.FulfillmentProcessing || lead.FulfillmentStatus == domain.FulfillmentReady
		}), nil
	case ViewCompleted:
		return filterGroups(groups, func(g domain.OrderGroup) bool {
			return leadLine(g).FulfillmentStatus == domain.FulfillmentCompleted
		}), nil
	default:
		return nil, fmt.Errorf("unknown order view %q: %w", view, ErrEmptyOperation)
	}
}

// leadLine picks the group's first original sale line. Compensating return
// rows are independently PAID and COMPLETED from creation, so they never
// speak for the order's state.
func leadLine(g domain.OrderGroup) domain.Sale {
	for _, line := range g.Lines {
		if line.Quantity > 0 {
			return line
		}
	}
	return g.Lines[0]
}

func filterGroups(groups []domain.OrderGroup, keep func(domain.OrderGroup) bool) []domain.OrderGroup {
	out := make([]domain.OrderGroup, 0, len(groups))
	for _, g := range groups {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

// Order returns one logical order by transaction code.
func (s *Service) Order(tx string) (domain.OrderGroup, error) {
	for _, g := range GroupSales(s.Sales()) {
		if g.TransactionID == tx {
			return g, nil
		}
	}
	return domain.OrderGroup{}, ErrNotFound
}

// ConfirmPayment settles a pending order: every line moves to PAID with the
// chosen method and enters fulfillment, and a registered customer's spend
// profile absorbs the order.
func (s *Service) ConfirmPayment(ctx context.Context, tx string, req domain.PaymentRequest) (domain.OrderGroup, error) {
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.Method))))
	if method == "" || !method.Valid() {
		return domain.OrderGroup{}, fmt.Errorf("payment method %q: %w", req.Method, ErrEmptyOperation)
	}
	cashier := actorName(ctx)

	s.mu.Lock()
	rows := s.orderRows(tx)
	if len(rows) == 0 {
		s.mu.Unlock()
		return domain.OrderGroup{}, ErrNotFound
	}
	for _, row := range rows {
		if row.PaymentStatus != domain.PaymentPending {
			s.mu.Unlock()
			return domain.OrderGroup{}, fmt.Errorf("order %s is %s: %w", tx, row.PaymentStatus, ErrInvalidTransition)
		}
	}

	now := s.now()
	group := domain.OrderGroup{TransactionID: tx}
	changed := make([]domain.Sale, 0, len(rows))
	var orderTotal float64
	for _, row := range rows {
		row.PaymentStatus = domain.PaymentPaid
		row.PaymentMethod = method
		row.PaymentDate = &now
		row.CashierName = cashier
		row.FulfillmentStatus = domain.FulfillmentProcessing
		group.Lines = append(group.Lines, *row)
		group.Total += row.TotalPrice
		orderTotal += row.TotalPrice
		changed = append(changed, *row)
	}

	var customerSnapshot *domain.Customer
	if id := rows[0].CustomerID; id != "" {
		if c, ok := s.customers[id]; ok {
			c.TotalSpent += orderTotal
			c.LastPurchaseDate = now
			for _, row := range rows {
				if p, ok := s.products[row.ProductID]; ok {
					addPreference(c, string(p.Type)+" "+p.Size)
				}
			}
			snap := cloneCustomer(*c)
			customerSnapshot = &snap
		}
	}
	s.mu.Unlock()

	s.persistSales(changed)
	if customerSnapshot != nil {
		s.persistCustomer(*customerSnapshot)
	}
	return group, nil
}

// CancelOrder voids a pending order and puts every reserved unit back on
// the shelf. Paid orders cannot be cancelled; they go through returns.
func (s *Service) CancelOrder(ctx context.Context, tx string) (domain.OrderGroup, error) {
	s.mu.Lock()
	rows := s.orderRows(tx)
	if len(rows) == 0 {
		s.mu.Unlock()
		return domain.OrderGroup{}, ErrNotFound
	}
	for _, row := range rows {
		if row.PaymentStatus != domain.PaymentPending {
			s.mu.Unlock()
			return domain.OrderGroup{}, fmt.Errorf("order %s is %s: %w", tx, row.PaymentStatus, ErrInvalidTransition)
		}
	}

	note := fmt.Sprintf("Cancelled Order %s", tx)
	group := domain.OrderGroup{TransactionID: tx}
	changed := make([]domain.Sale, 0, len(rows))
	restored := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		row.PaymentStatus = domain.PaymentCancelled
		if p, ok := s.products[row.ProductID]; ok {
			s.appendStockEntry(p, domain.StockEntryCancellation, row.Quantity, note)
			restored = append(restored, cloneProduct(*p))
		}
		group.Lines = append(group.Lines, *row)
		group.Total += row.TotalPrice
		changed = append(changed, *row)
	}
	s.mu.Unlock()

	s.persistSales(changed)
	if len(restored) > 0 {
		s.persistProducts(restored)
		s.invalidateCatalog()
	}
	return group, nil
}

// fulfillmentNext is the only forward step allowed from each state. NEW
// rows advance implicitly when payment lands, so they are absent here.
var fulfillmentNext = map[domain.FulfillmentStatus]domain.FulfillmentStatus{
	domain.FulfillmentProcessing: domain.FulfillmentReady,
	domain.FulfillmentReady:      domain.FulfillmentCompleted,
}

// AdvanceFulfillment moves a paid order one step along the board:
// PROCESSING to READY, READY to COMPLETED.
func (s *Service) AdvanceFulfillment(ctx context.Context, tx string, req domain.FulfillmentAdvanceRequest) (domain.OrderGroup, error) {
	s.mu.Lock()
	rows := s.orderRows(tx)
	if len(rows) == 0 {
		s.mu.Unlock()
		return domain.OrderGroup{}, ErrNotFound
	}

	current := rows[0].FulfillmentStatus
	next, ok := fulfillmentNext[current]
	if rows[0].PaymentStatus != domain.PaymentPaid || !ok || req.Status != next {
		s.mu.Unlock()
		return domain.OrderGroup{}, fmt.Errorf("order %s cannot move from %s to %s: %w",
			tx, current, req.Status, ErrInvalidTransition)
	}

	group := domain.OrderGroup{TransactionID: tx}
	changed := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		row.FulfillmentStatus = next
		group.Lines = append(group.Lines, *row)
		group.Total += row.TotalPrice
		changed = append(changed, *row)
	}
	s.mu.Unlock()

	s.persistSales(changed)
	return group, nil
}

// orderRows returns pointers into s.sales for one transaction's original
// lines, in stored order. Compensating return rows are excluded: they are
// terminal from creation and never transition with the order. Caller holds
// s.mu.
func (s *Service) orderRows(tx string) []*domain.Sale {
	rows := make([]*domain.Sale, 0, 4)
	for i := range s.sales {
		if s.sales[i].TransactionID == tx && s.sales[i].Quantity > 0 {
			rows = append(rows, &s.sales[i])
		}
	}
	return rows
}

func addPreference(c *domain.Customer, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	for _, existing := range c.Preferences {
		if existing == token {
			return
		}
	}
	c.Preferences = append(c.Preferences, token)
}
