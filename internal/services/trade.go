package services

import (
	"fmt"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// MinQuantity is the dust threshold: a holding whose quantity falls below it
// after a sell is removed outright.
const MinQuantity = 1e-8

// SellPlan is the priced outcome of validating a sell before anything is
// written. Callers apply it inside a database transaction.
type SellPlan struct {
	Quantity          float64 `json:"quantity"`
	Price             float64 `json:"price"`
	Fee               float64 `json:"fee"`
	GrossProceeds     float64 `json:"gross_proceeds"`
	NetProceeds       float64 `json:"net_proceeds"`
	CostBasis         float64 `json:"cost_basis"`
	RealizedPL        float64 `json:"realized_pl"`
	RemainingQuantity float64 `json:"remaining_quantity"`
	RemoveHolding     bool    `json:"remove_holding"`
}

// PlanSell validates a sell against the holding and prices it. Nothing is
// mutated. Realized P/L is net proceeds (after fee) minus the average-cost
// basis of the sold quantity. Selling the full position within float
// tolerance counts as a sell-all and removes the holding.
func PlanSell(h *models.Holding, quantity, price, fee float64) (*SellPlan, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("sell quantity must be positive, got %v", quantity)
	}
	if price <= 0 {
		return nil, fmt.Errorf("sell price must be positive, got %v", price)
	}
	if fee < 0 {
		return nil, fmt.Errorf("fee cannot be negative, got %v", fee)
	}
	if quantity > h.Quantity {
		if quantity-h.Quantity > MinQuantity {
			return nil, fmt.Errorf("cannot sell %v %s, only %v held", quantity, h.Symbol, h.Quantity)
		}
		quantity = h.Quantity // float drift on a sell-all
	}

	gross := quantity * price
	if fee > gross {
		return nil, fmt.Errorf("fee %v exceeds gross proceeds %v", fee, gross)
	}

	remaining := h.Quantity - quantity
	if remaining < MinQuantity {
		remaining = 0
	}

	net := gross - fee
	basis := quantity * h.AvgBuyPrice

	return &SellPlan{
		Quantity:          quantity,
		Price:             price,
		Fee:               fee,
		GrossProceeds:     gross,
		NetProceeds:       net,
		CostBasis:         basis,
		RealizedPL:        net - basis,
		RemainingQuantity: remaining,
		RemoveHolding:     remaining == 0,
	}, nil
}

// ApplyBuy folds a purchase or incoming transfer into the holding,
// recomputing the weighted-average buy price:
// newAvg = (oldQty*oldAvg + qty*price) / (oldQty + qty)
func ApplyBuy(h *models.Holding, quantity, price float64) error {
	if quantity <= 0 {
		return fmt.Errorf("buy quantity must be positive, got %v", quantity)
	}
	if price < 0 {
		return fmt.Errorf("buy price cannot be negative, got %v", price)
	}

	newQuantity := h.Quantity + quantity
	h.AvgBuyPrice = (h.Quantity*h.AvgBuyPrice + quantity*price) / newQuantity
	h.Quantity = newQuantity
	return nil
}
