package pricing

import "math"

// Breakdown carries every intermediate figure of the selling-price
// computation so callers can persist the cost components alongside the
// final price.
type Breakdown struct {
	BaseCostGhs   float64
	ServiceCharge float64
	MiscCharge    float64
	TotalCost     float64
	PricePreTax   float64
	TaxAmount     float64
	FinalPrice    float64
}

// Compute derives a selling price from CFA cost and the shop's charge
// structure. exchangeRate is quoted as GHS per 1000 CFA. The final price
// is rounded up to the next whole cedi.
func Compute(costCfa, exchangeRate, serviceRatePct, miscRatePct, profitMargin, taxRatePct float64) Breakdown {
	baseCost := costCfa * (exchangeRate / 1000)
	serviceCharge := baseCost * serviceRatePct / 100
	miscCharge := baseCost * miscRatePct / 100
	totalCost := baseCost + serviceCharge + miscCharge
	preTax := totalCost + profitMargin
	tax := preTax * taxRatePct / 100

	return Breakdown{
		BaseCostGhs:   baseCost,
		ServiceCharge: serviceCharge,
		MiscCharge:    miscCharge,
		TotalCost:     totalCost,
		PricePreTax:   preTax,
		TaxAmount:     tax,
		FinalPrice:    math.Ceil(preTax + tax),
	}
}

// Recompute re-derives the selling price from a product's stored cost
// components after a margin or tax change, without revisiting the CFA cost.
func Recompute(baseCostGhs, serviceCharge, miscCharge, profitMargin, taxRatePct float64) float64 {
	preTax := baseCostGhs + serviceCharge + miscCharge + profitMargin
	return math.Ceil(preTax + preTax*taxRatePct/100)
}

// TaxSplit back-calculates the tax component of a line sold at a
// tax-inclusive total. This reports tax on a sale without re-deriving it
// from cost, since the selling price may predate the current tax rate.
func TaxSplit(lineTotal, taxRatePct float64) (base float64, tax float64) {
	base = lineTotal / (1 + taxRatePct/100)
	return base, lineTotal - base
}
