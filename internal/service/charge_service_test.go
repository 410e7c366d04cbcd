package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/payment"
)

func money(f float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(f))
}

func TestCreateChargeValidatesBeforeGateway(t *testing.T) {
	_, paymentRepo := setupServiceTest(t)
	gw := &stubGateway{charge: &payment.Charge{TransactionID: "tx_1", QRText: "pix"}}
	svc := NewChargeService(paymentRepo, gw)

	cases := []CreateChargeInput{
		{Name: "", Email: "a@b.com", Plan: "Anual", Amount: money(10)},
		{Name: "Maria", Email: "a@b.com", Plan: "", Amount: money(10)},
		{Name: "Maria", Email: "", Phone: "", Plan: "Anual", Amount: money(10)},
		{Name: "Maria", Email: "a@b.com", Plan: "Anual", Amount: money(0)},
		{Name: "Maria", Email: "a@b.com", Plan: "Anual", Amount: money(-5)},
	}
	for i, input := range cases {
		if _, err := svc.CreateCharge(context.Background(), input); !errors.Is(err, ErrChargeInvalid) {
			t.Errorf("case %d: err = %v, want ErrChargeInvalid", i, err)
		}
	}
	if gw.createCalls != 0 {
		t.Fatalf("gateway called %d times for invalid input", gw.createCalls)
	}
}

func TestCreateChargeStoresPendingPayment(t *testing.T) {
	_, paymentRepo := setupServiceTest(t)
	gw := &stubGateway{charge: &payment.Charge{
		TransactionID: "tx_77",
		RawStatus:     "pending",
		QRText:        "00020126pix",
		QRImageBase64: "aW1n",
	}}
	svc := NewChargeService(paymentRepo, gw)

	result, err := svc.CreateCharge(context.Background(), CreateChargeInput{
		Name:   "Maria",
		Email:  "maria@example.com",
		Phone:  "45991567288",
		Plan:   "Anual",
		Amount: money(149.90),
	})
	if err != nil {
		t.Fatalf("create charge failed: %v", err)
	}
	if result.QRText != "00020126pix" || result.QRImageBase64 != "aW1n" {
		t.Fatalf("qr not propagated: %+v", result)
	}

	p := result.Payment
	if p.ID == 0 {
		t.Fatal("payment not persisted")
	}
	if p.Status != constants.PaymentStatusPending {
		t.Fatalf("status = %q, want pending", p.Status)
	}
	if p.ProviderTxID == nil || *p.ProviderTxID != "tx_77" {
		t.Fatalf("provider_tx_id = %v, want tx_77", p.ProviderTxID)
	}
	if !strings.HasPrefix(p.ExternalReference, "unitv_") {
		t.Fatalf("external_reference = %q", p.ExternalReference)
	}
	if p.Amount.String() != "149.90" {
		t.Fatalf("amount = %q, want 149.90", p.Amount.String())
	}

	stored, err := paymentRepo.GetByProviderTxID("tx_77")
	if err != nil || stored == nil {
		t.Fatalf("stored payment not found: %v", err)
	}
}

func TestCreateChargeRendersQRFallback(t *testing.T) {
	_, paymentRepo := setupServiceTest(t)
	gw := &stubGateway{charge: &payment.Charge{
		TransactionID: "tx_88",
		QRText:        "00020126pixcopypaste",
	}}
	svc := NewChargeService(paymentRepo, gw)

	result, err := svc.CreateCharge(context.Background(), CreateChargeInput{
		Name:   "Maria",
		Email:  "maria@example.com",
		Plan:   "Mensal",
		Amount: money(19.90),
	})
	if err != nil {
		t.Fatalf("create charge failed: %v", err)
	}
	if result.QRImageBase64 == "" {
		t.Fatal("expected locally rendered qr image")
	}
}

func TestCreateChargeGatewayFailure(t *testing.T) {
	_, paymentRepo := setupServiceTest(t)
	gw := &stubGateway{createErr: errStub}
	svc := NewChargeService(paymentRepo, gw)

	_, err := svc.CreateCharge(context.Background(), CreateChargeInput{
		Name:   "Maria",
		Email:  "maria@example.com",
		Plan:   "Anual",
		Amount: money(149.90),
	})
	if !errors.Is(err, ErrGatewayFailed) {
		t.Fatalf("err = %v, want ErrGatewayFailed", err)
	}

	// No orphan payment row on gateway failure.
	count, _ := paymentRepo.CountByStatus("")
	if count != 0 {
		t.Fatalf("payments = %d, want 0", count)
	}
}

func TestExternalReferenceFormat(t *testing.T) {
	ref := newExternalReference()
	parts := strings.Split(ref, "_")
	if len(parts) != 3 || parts[0] != "unitv" {
		t.Fatalf("ref = %q", ref)
	}
	if len(parts[2]) != 8 {
		t.Fatalf("token = %q, want 8 chars", parts[2])
	}
	if ref == newExternalReference() {
		t.Fatal("references must not repeat")
	}
}
