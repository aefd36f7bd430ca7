package domain

import "github.com/shopspring/decimal"

// SalesStatistic is the read-side projection of a product that has sold
type SalesStatistic struct {
	ProductID string
	Name      string
	UnitsSold int
	Revenue   decimal.Decimal
}

// DeriveStatistics keeps the products with at least one sale and maps each to
// its units sold and revenue. Input order is preserved.
func DeriveStatistics(products []*Product) []SalesStatistic {
	stats := make([]SalesStatistic, 0, len(products))
	for _, p := range products {
		if p.SoldQuantity <= 0 {
			continue
		}
		stats = append(stats, SalesStatistic{
			ProductID: p.ID,
			Name:      p.Name,
			UnitsSold: p.SoldQuantity,
			Revenue:   p.Price.Mul(decimal.NewFromInt(int64(p.SoldQuantity))),
		})
	}
	return stats
}
