package service

import (
	"fmt"
	"sort"
	"time"

	"manware/pos/internal/domain"
)

// DailySummaryFor totals the paid business of one calendar day: gross sales
// net of returns, tax collected, items out the door, and the take per
// payment method. day is "YYYY-MM-DD"; empty means today.
func (s *Service) DailySummaryFor(day string) (domain.DailySummary, error) {
	var target time.Time
	if day == "" {
		target = s.now()
	} else {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			return domain.DailySummary{}, fmt.Errorf("bad date %q: %w", day, ErrEmptyOperation)
		}
		target = parsed
	}
	y, m, d := target.Date()

	summary := domain.DailySummary{Date: fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)}
	byMethod := make(map[domain.PaymentMethod]*domain.PaymentBreakdown)
	seenTx := make(map[string]bool)

	for _, sale := range s.Sales() {
		if sale.PaymentStatus != domain.PaymentPaid || sale.PaymentDate == nil {
			continue
		}
		py, pm, pd := sale.PaymentDate.Date()
		if py != y || pm != m || pd != d {
			continue
		}

		summary.GrossSales += sale.TotalPrice
		summary.TaxCollected += sale.TaxAmount
		summary.ItemsSold += sale.Quantity
		if !seenTx[sale.TransactionID] {
			seenTx[sale.TransactionID] = true
			summary.Orders++
		}

		b, ok := byMethod[sale.PaymentMethod]
		if !ok {
			b = &domain.PaymentBreakdown{Method: sale.PaymentMethod}
			byMethod[sale.PaymentMethod] = b
		}
		b.Transactions++
		b.Total += sale.TotalPrice
	}

	summary.ByMethod = make([]domain.PaymentBreakdown, 0, len(byMethod))
	for _, b := range byMethod {
		summary.ByMethod = append(summary.ByMethod, *b)
	}
	sort.Slice(summary.ByMethod, func(i, j int) bool {
		return summary.ByMethod[i].Method < summary.ByMethod[j].Method
	})
	return summary, nil
}
