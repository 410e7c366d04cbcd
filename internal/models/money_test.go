package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyCents(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"149.90", 14990},
		{"19.9", 1990},
		{"0.01", 1},
		{"10.005", 1001},
		{"0", 0},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.amount, err)
		}
		if got := NewMoneyFromDecimal(d).Cents(); got != tc.want {
			t.Fatalf("Cents(%s) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestMoneyJSONAcceptsStringAndNumber(t *testing.T) {
	var payload struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"149.90"}`), &payload); err != nil {
		t.Fatalf("string amount failed: %v", err)
	}
	if payload.Amount.Cents() != 14990 {
		t.Fatalf("cents = %d, want 14990", payload.Amount.Cents())
	}

	if err := json.Unmarshal([]byte(`{"amount":149.9}`), &payload); err != nil {
		t.Fatalf("number amount failed: %v", err)
	}
	if payload.Amount.Cents() != 14990 {
		t.Fatalf("cents = %d, want 14990", payload.Amount.Cents())
	}

	out, err := json.Marshal(payload.Amount)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `"149.90"` {
		t.Fatalf("marshal = %s, want \"149.90\"", out)
	}
}
