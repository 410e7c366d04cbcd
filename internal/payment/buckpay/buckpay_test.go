package buckpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unitv-next/internal/payment"
)

func TestNewRequiresSecretToken(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestCreateCharge(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transactions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"id":     "tx_123",
				"status": "pending",
				"pix": map[string]interface{}{
					"code":          "00020126pixcopypaste",
					"qrcode_base64": "aW1n",
				},
			},
		})
	}))
	defer srv.Close()

	client, err := New(Config{BaseURL: srv.URL, SecretToken: "sk_test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	charge, err := client.CreateCharge(context.Background(), payment.CreateChargeInput{
		ExternalReference: "unitv_1_abc",
		AmountCents:       1990,
		BuyerName:         "Maria",
		BuyerEmail:        "maria@example.com",
		BuyerPhone:        "5511999999999",
	})
	if err != nil {
		t.Fatalf("CreateCharge: %v", err)
	}
	if charge.TransactionID != "tx_123" {
		t.Errorf("transaction id = %q", charge.TransactionID)
	}
	if charge.Paid {
		t.Error("pending charge reported as paid")
	}
	if charge.QRText != "00020126pixcopypaste" {
		t.Errorf("qr text = %q", charge.QRText)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody["external_id"] != "unitv_1_abc" {
		t.Errorf("external_id = %v", gotBody["external_id"])
	}
	if gotBody["amount"] != float64(1990) {
		t.Errorf("amount = %v", gotBody["amount"])
	}
	if gotBody["payment_method"] != "pix" {
		t.Errorf("payment_method = %v", gotBody["payment_method"])
	}
}

func TestGetChargeByExternalReferenceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, _ := New(Config{BaseURL: srv.URL, SecretToken: "sk_test"})
	if _, err := client.GetChargeByExternalReference(context.Background(), "unitv_missing"); !errors.Is(err, ErrChargeNotFound) {
		t.Fatalf("expected ErrChargeNotFound, got %v", err)
	}
}

func TestResolveWebhook(t *testing.T) {
	client, _ := New(Config{SecretToken: "sk_test"})

	event, err := client.ResolveWebhook(context.Background(), []byte(`{"event":"transaction.processed","data":{"id":"tx_9","status":"paid"}}`))
	if err != nil {
		t.Fatalf("ResolveWebhook: %v", err)
	}
	if !event.Paid || event.TransactionID != "tx_9" {
		t.Errorf("unexpected event %+v", event)
	}

	event, err = client.ResolveWebhook(context.Background(), []byte(`{"event":"transaction.created","data":{"id":"tx_9","status":"pending"}}`))
	if err != nil {
		t.Fatalf("ResolveWebhook: %v", err)
	}
	if event.Paid {
		t.Error("pending webhook reported as paid")
	}

	if _, err := client.ResolveWebhook(context.Background(), []byte(`not json`)); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got %v", err)
	}
}
