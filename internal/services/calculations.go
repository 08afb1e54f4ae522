package services

import (
	"sort"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// PortfolioMetrics holds portfolio-level aggregated metrics
type PortfolioMetrics struct {
	TotalValue                float64 `json:"total_value"`
	TotalCost                 float64 `json:"total_cost"`
	TotalProfitLoss           float64 `json:"total_profit_loss"`
	TotalProfitLossPercentage float64 `json:"total_profit_loss_percentage"`
	DayChange                 float64 `json:"day_change"`
	DayChangePercentage       float64 `json:"day_change_percentage"`
}

// Allocation is one asset class share of the portfolio
type Allocation struct {
	AssetClass string  `json:"asset_class"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// CalculatePortfolioMetrics aggregates holdings into portfolio totals.
func CalculatePortfolioMetrics(holdings []models.Holding) PortfolioMetrics {
	var m PortfolioMetrics

	for i := range holdings {
		h := &holdings[i]
		m.TotalValue += h.CurrentValue()
		m.TotalCost += h.TotalCost()

		// Day change: value moved over the last 24h. Holdings without a
		// 24h figure contribute value but no day change.
		if h.Change24h != nil {
			m.DayChange += h.CurrentValue() * (*h.Change24h / 100)
		}
	}

	m.TotalProfitLoss = m.TotalValue - m.TotalCost

	// P/L percentage is measured against cost. A portfolio with zero cost
	// reads 0, never NaN or an error.
	if m.TotalCost != 0 {
		m.TotalProfitLossPercentage = m.TotalProfitLoss / m.TotalCost * 100
	}

	// Day change percentage is measured against yesterday's value: today's
	// value minus today's move. A non-positive base reads 0.
	if base := m.TotalValue - m.DayChange; base > 0 {
		m.DayChangePercentage = m.DayChange / base * 100
	}

	return m
}

// CalculateAllocation groups current value by asset class as a percentage of
// total value, largest first with ties broken by name. An empty or worthless
// portfolio yields an empty list, not an error.
func CalculateAllocation(holdings []models.Holding) []Allocation {
	values := make(map[string]float64)
	var total float64

	for i := range holdings {
		v := holdings[i].CurrentValue()
		values[holdings[i].AssetClass] += v
		total += v
	}

	if total <= 0 {
		return []Allocation{}
	}

	allocations := make([]Allocation, 0, len(values))
	for class, value := range values {
		allocations = append(allocations, Allocation{
			AssetClass: class,
			Value:      value,
			Percentage: value / total * 100,
		})
	}

	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].Value == allocations[j].Value {
			return allocations[i].AssetClass < allocations[j].AssetClass
		}
		return allocations[i].Value > allocations[j].Value
	})

	return allocations
}
