package services

import (
	"math"
	"testing"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculatePortfolioMetrics_SingleHolding(t *testing.T) {
	holdings := []models.Holding{
		{Symbol: "BTC", Quantity: 1, AvgBuyPrice: 10000, CurrentPrice: 20000},
	}

	m := CalculatePortfolioMetrics(holdings)

	if m.TotalValue != 20000 {
		t.Errorf("TotalValue = %v, want 20000", m.TotalValue)
	}
	if m.TotalCost != 10000 {
		t.Errorf("TotalCost = %v, want 10000", m.TotalCost)
	}
	if m.TotalProfitLoss != 10000 {
		t.Errorf("TotalProfitLoss = %v, want 10000", m.TotalProfitLoss)
	}
	if m.TotalProfitLossPercentage != 100 {
		t.Errorf("TotalProfitLossPercentage = %v, want 100", m.TotalProfitLossPercentage)
	}
}

func TestCalculatePortfolioMetrics_ZeroCostReadsZeroPercent(t *testing.T) {
	// Airdropped coins: value without cost. The percentage must be exactly
	// zero, not NaN or infinity.
	holdings := []models.Holding{
		{Symbol: "ARB", Quantity: 500, AvgBuyPrice: 0, CurrentPrice: 1.2},
	}

	m := CalculatePortfolioMetrics(holdings)

	if m.TotalProfitLossPercentage != 0 {
		t.Errorf("TotalProfitLossPercentage = %v, want exactly 0", m.TotalProfitLossPercentage)
	}
	if math.IsNaN(m.TotalProfitLossPercentage) || math.IsInf(m.TotalProfitLossPercentage, 0) {
		t.Error("TotalProfitLossPercentage is NaN or Inf")
	}
	if m.TotalValue != 600 {
		t.Errorf("TotalValue = %v, want 600", m.TotalValue)
	}
}

func TestCalculatePortfolioMetrics_EmptyPortfolio(t *testing.T) {
	m := CalculatePortfolioMetrics(nil)

	if m.TotalValue != 0 || m.TotalCost != 0 || m.TotalProfitLoss != 0 {
		t.Errorf("empty portfolio metrics = %+v, want all zero", m)
	}
	if m.TotalProfitLossPercentage != 0 || m.DayChangePercentage != 0 {
		t.Errorf("empty portfolio percentages = %+v, want zero", m)
	}
}

func TestCalculatePortfolioMetrics_DayChange(t *testing.T) {
	// BTC moved +5% of its 20000 value (+1000), ETH -2% of 5000 (-100);
	// SOL has no 24h figure and contributes value only.
	holdings := []models.Holding{
		{Symbol: "BTC", Quantity: 1, AvgBuyPrice: 15000, CurrentPrice: 20000, Change24h: floatPtr(5)},
		{Symbol: "ETH", Quantity: 2, AvgBuyPrice: 2000, CurrentPrice: 2500, Change24h: floatPtr(-2)},
		{Symbol: "SOL", Quantity: 10, AvgBuyPrice: 100, CurrentPrice: 150},
	}

	m := CalculatePortfolioMetrics(holdings)

	if !almostEqual(m.DayChange, 900) {
		t.Errorf("DayChange = %v, want 900", m.DayChange)
	}
	// Yesterday's value: 26500 - 900 = 25600.
	if want := 900.0 / 25600 * 100; !almostEqual(m.DayChangePercentage, want) {
		t.Errorf("DayChangePercentage = %v, want %v", m.DayChangePercentage, want)
	}
}

func TestCalculatePortfolioMetrics_DayChangePercentNonPositiveBase(t *testing.T) {
	// A +100% day doubles the value, so yesterday's base equals zero; the
	// percentage must read 0 rather than dividing by it.
	holdings := []models.Holding{
		{Symbol: "PUMP", Quantity: 1, AvgBuyPrice: 1, CurrentPrice: 10, Change24h: floatPtr(100)},
	}

	m := CalculatePortfolioMetrics(holdings)

	if m.DayChangePercentage != 0 {
		t.Errorf("DayChangePercentage = %v, want 0 for non-positive base", m.DayChangePercentage)
	}
}

func TestCalculateAllocation(t *testing.T) {
	holdings := []models.Holding{
		{AssetClass: "crypto", Symbol: "BTC", Quantity: 1, CurrentPrice: 30000},
		{AssetClass: "crypto", Symbol: "ETH", Quantity: 4, CurrentPrice: 2500},
		{AssetClass: "stablecoin", Symbol: "USDC", Quantity: 10000, CurrentPrice: 1},
	}

	allocations := CalculateAllocation(holdings)

	if len(allocations) != 2 {
		t.Fatalf("len(allocations) = %d, want 2", len(allocations))
	}
	if allocations[0].AssetClass != "crypto" {
		t.Errorf("largest class = %s, want crypto", allocations[0].AssetClass)
	}
	if !almostEqual(allocations[0].Value, 40000) {
		t.Errorf("crypto value = %v, want 40000", allocations[0].Value)
	}
	if !almostEqual(allocations[0].Percentage, 80) {
		t.Errorf("crypto percentage = %v, want 80", allocations[0].Percentage)
	}
	if !almostEqual(allocations[1].Percentage, 20) {
		t.Errorf("stablecoin percentage = %v, want 20", allocations[1].Percentage)
	}
}

func TestCalculateAllocation_SumsToHundred(t *testing.T) {
	holdings := []models.Holding{
		{AssetClass: "crypto", Quantity: 0.7, CurrentPrice: 63211.55},
		{AssetClass: "stablecoin", Quantity: 1234.56, CurrentPrice: 0.9999},
		{AssetClass: "cash", Quantity: 410.77, CurrentPrice: 1},
		{AssetClass: "defi", Quantity: 99.3, CurrentPrice: 7.77},
	}

	allocations := CalculateAllocation(holdings)

	var sum float64
	for _, a := range allocations {
		sum += a.Percentage
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Errorf("allocation percentages sum to %v, want 100", sum)
	}
}

func TestCalculateAllocation_EmptyPortfolio(t *testing.T) {
	allocations := CalculateAllocation(nil)
	if allocations == nil {
		t.Fatal("CalculateAllocation(nil) = nil, want empty list")
	}
	if len(allocations) != 0 {
		t.Errorf("len = %d, want 0", len(allocations))
	}
}

func TestCalculateAllocation_WorthlessHoldings(t *testing.T) {
	holdings := []models.Holding{
		{AssetClass: "crypto", Symbol: "RUG", Quantity: 100000, CurrentPrice: 0},
	}
	if allocations := CalculateAllocation(holdings); len(allocations) != 0 {
		t.Errorf("worthless portfolio produced %d allocations, want 0", len(allocations))
	}
}

func TestHoldingDerivedValues(t *testing.T) {
	h := models.Holding{Quantity: 2, AvgBuyPrice: 1500, CurrentPrice: 2000}

	if got := h.CurrentValue(); got != 4000 {
		t.Errorf("CurrentValue() = %v, want 4000", got)
	}
	if got := h.TotalCost(); got != 3000 {
		t.Errorf("TotalCost() = %v, want 3000", got)
	}
	if got := h.ProfitLoss(); got != 1000 {
		t.Errorf("ProfitLoss() = %v, want 1000", got)
	}
	if got := h.ProfitLossPercentage(); !almostEqual(got, 100.0/3) {
		t.Errorf("ProfitLossPercentage() = %v, want %v", got, 100.0/3)
	}

	free := models.Holding{Quantity: 10, AvgBuyPrice: 0, CurrentPrice: 5}
	if got := free.ProfitLossPercentage(); got != 0 {
		t.Errorf("ProfitLossPercentage() with zero cost = %v, want 0", got)
	}
}
