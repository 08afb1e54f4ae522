package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"50", "USD", "$50.00"},
		{"0.99", "USD", "$0.99"},
		{"1234.5", "USD", "$1,234.50"},
		{"25", "ZZZ", "25.00 ZZZ"}, // unknown code falls back to plain rendering
	}

	for _, tt := range tests {
		amount, err := decimal.NewFromString(tt.amount)
		if err != nil {
			t.Fatalf("bad test amount %q: %v", tt.amount, err)
		}
		if got := FormatAmount(amount, tt.currency); got != tt.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestComposeDCADueMessage(t *testing.T) {
	twelve := 12
	bounded := models.DCAReminder{
		Symbol:             "BTC",
		Name:               "Bitcoin",
		Amount:             decimal.NewFromInt(50),
		Currency:           "USD",
		TotalPurchases:     &twelve,
		CompletedPurchases: 2,
	}

	msg := ComposeDCADueMessage(&bounded)
	if !strings.Contains(msg, "$50.00") {
		t.Errorf("message %q missing formatted amount", msg)
	}
	if !strings.Contains(msg, "Purchase 3 of 12") {
		t.Errorf("message %q missing plan progress", msg)
	}

	open := models.DCAReminder{
		Symbol:   "ETH",
		Name:     "Ethereum",
		Amount:   decimal.NewFromInt(25),
		Currency: "USD",
	}
	msg = ComposeDCADueMessage(&open)
	if strings.Contains(msg, "Purchase") {
		t.Errorf("open-ended message %q mentions plan progress", msg)
	}
}

func TestComposeRiskTriggerMessage(t *testing.T) {
	r := models.RiskReminder{
		Symbol:    "BTC",
		Amount:    decimal.NewFromInt(100),
		Currency:  "USD",
		Threshold: 30,
		Direction: models.RiskBelow,
	}

	msg := ComposeRiskTriggerMessage(&r, 27.5)
	for _, want := range []string{"BTC", "27.5", "below", "30.0", "$100.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
