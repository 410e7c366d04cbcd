package public

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/unitv-next/internal/config"
	"github.com/unitv-next/internal/constants"
	"github.com/unitv-next/internal/models"
	"github.com/unitv-next/internal/payment"
	"github.com/unitv-next/internal/provider"
	"github.com/unitv-next/internal/repository"
	"github.com/unitv-next/internal/service"
)

// stubGateway is a scriptable payment.Gateway for handler tests.
type stubGateway struct {
	event      *payment.WebhookEvent
	resolveErr error
	pullCharge *payment.Charge
	pullErr    error
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreateCharge(_ context.Context, input payment.CreateChargeInput) (*payment.Charge, error) {
	txID := "tx_" + input.ExternalReference
	return &payment.Charge{
		TransactionID:     txID,
		ExternalReference: input.ExternalReference,
		RawStatus:         "pending",
		QRText:            "pix-copy-paste",
	}, nil
}

func (g *stubGateway) GetChargeByExternalReference(_ context.Context, _ string) (*payment.Charge, error) {
	if g.pullErr != nil {
		return nil, g.pullErr
	}
	return g.pullCharge, nil
}

func (g *stubGateway) ResolveWebhook(_ context.Context, _ []byte) (*payment.WebhookEvent, error) {
	if g.resolveErr != nil {
		return nil, g.resolveErr
	}
	return g.event, nil
}

func setupHandlerTest(t *testing.T, gateway payment.Gateway) (*Handler, *repository.GormCodeRepository, *repository.GormPaymentRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Code{}, &models.Payment{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	codeRepo := repository.NewCodeRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	fulfillment := service.NewFulfillmentService(paymentRepo, codeRepo, nil, nil)
	container := &provider.Container{
		Config:             &config.Config{},
		CodeRepo:           codeRepo,
		PaymentRepo:        paymentRepo,
		Gateway:            gateway,
		ChargeService:      service.NewChargeService(paymentRepo, gateway),
		FulfillmentService: fulfillment,
		StatusService:      service.NewStatusService(paymentRepo, gateway, fulfillment),
		InventoryService:   service.NewInventoryService(codeRepo, paymentRepo),
	}
	return New(container), codeRepo, paymentRepo
}

func seedPayment(t *testing.T, repo *repository.GormPaymentRepository, ref, txID string) *models.Payment {
	t.Helper()
	p := &models.Payment{
		ExternalReference: ref,
		BuyerName:         "Maria",
		BuyerEmail:        "maria@example.com",
		Plan:              "Anual",
		Amount:            models.NewMoneyFromDecimal(decimal.NewFromFloat(149.90)),
		Status:            constants.PaymentStatusPending,
	}
	if txID != "" {
		p.ProviderTxID = &txID
	}
	if err := repo.Create(p); err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return p
}

func postJSON(t *testing.T, handler gin.HandlerFunc, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	handler(c)

	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response json %q: %v", w.Body.String(), err)
	}
	return w, payload
}

func TestWebhookAllocatesAndStatusReturnsCode(t *testing.T) {
	gateway := &stubGateway{}
	h, codeRepo, paymentRepo := setupHandlerTest(t, gateway)

	if _, err := codeRepo.BulkInsert([]string{"ABC123", "DEF456"}); err != nil {
		t.Fatalf("seed codes failed: %v", err)
	}
	seedPayment(t, paymentRepo, "unitv_1_a", "tx_a")

	gateway.event = &payment.WebhookEvent{
		EventType:     "transaction.processed",
		TransactionID: "tx_a",
		Paid:          true,
	}
	w, payload := postJSON(t, h.PaymentWebhook, `{"event":"transaction.processed"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if payload["status"] != constants.FulfillTagSuccess {
		t.Fatalf("status tag = %v, want success", payload["status"])
	}

	// The storefront poll now sees the allocated code.
	w, payload = postJSON(t, h.CheckPayment, `{"paymentId":"tx_a"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("check status = %d, want 200", w.Code)
	}
	if payload["status"] != constants.PaymentStatusApproved {
		t.Fatalf("payment status = %v, want approved", payload["status"])
	}
	if payload["code"] != "ABC123" {
		t.Fatalf("code = %v, want ABC123", payload["code"])
	}

	available, _ := codeRepo.CountAvailable()
	if available != 1 {
		t.Fatalf("available = %d, want 1", available)
	}
}

func TestWebhookReplayReportsAlreadyProcessed(t *testing.T) {
	gateway := &stubGateway{event: &payment.WebhookEvent{
		EventType:     "transaction.processed",
		TransactionID: "tx_a",
		Paid:          true,
	}}
	h, codeRepo, paymentRepo := setupHandlerTest(t, gateway)

	if _, err := codeRepo.BulkInsert([]string{"ABC123"}); err != nil {
		t.Fatalf("seed codes failed: %v", err)
	}
	seedPayment(t, paymentRepo, "unitv_1_a", "tx_a")

	_, payload := postJSON(t, h.PaymentWebhook, `{}`, nil)
	if payload["status"] != constants.FulfillTagSuccess {
		t.Fatalf("first status = %v, want success", payload["status"])
	}
	_, payload = postJSON(t, h.PaymentWebhook, `{}`, nil)
	if payload["status"] != constants.FulfillTagAlreadyProcessed {
		t.Fatalf("replay status = %v, want already_processed", payload["status"])
	}
}

func TestWebhookNoStock(t *testing.T) {
	gateway := &stubGateway{event: &payment.WebhookEvent{
		EventType:     "transaction.processed",
		TransactionID: "tx_a",
		Paid:          true,
	}}
	h, _, paymentRepo := setupHandlerTest(t, gateway)
	seedPayment(t, paymentRepo, "unitv_1_a", "tx_a")

	w, payload := postJSON(t, h.PaymentWebhook, `{}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if payload["status"] != constants.FulfillTagNoStock {
		t.Fatalf("status tag = %v, want no_stock", payload["status"])
	}

	reloaded, _ := paymentRepo.GetByProviderTxID("tx_a")
	if reloaded.Status != constants.PaymentStatusPending {
		t.Fatalf("payment status = %q, want pending", reloaded.Status)
	}
}

func TestWebhookUnknownTransactionAnswersReceived(t *testing.T) {
	gateway := &stubGateway{event: &payment.WebhookEvent{
		EventType:     "transaction.processed",
		TransactionID: "tx_missing",
		Paid:          true,
	}}
	h, _, _ := setupHandlerTest(t, gateway)

	w, payload := postJSON(t, h.PaymentWebhook, `{}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if payload["status"] != constants.FulfillTagReceived {
		t.Fatalf("status tag = %v, want received", payload["status"])
	}
}

func TestWebhookUnpaidEventIgnored(t *testing.T) {
	gateway := &stubGateway{event: &payment.WebhookEvent{
		EventType:     "transaction.created",
		TransactionID: "tx_a",
		Paid:          false,
	}}
	h, _, paymentRepo := setupHandlerTest(t, gateway)
	seedPayment(t, paymentRepo, "unitv_1_a", "tx_a")

	_, payload := postJSON(t, h.PaymentWebhook, `{}`, nil)
	if payload["status"] != constants.FulfillTagReceived {
		t.Fatalf("status tag = %v, want received", payload["status"])
	}
	reloaded, _ := paymentRepo.GetByProviderTxID("tx_a")
	if reloaded.Status != constants.PaymentStatusPending {
		t.Fatalf("payment status = %q, want pending", reloaded.Status)
	}
}

func TestWebhookSignatureVerification(t *testing.T) {
	gateway := &stubGateway{event: &payment.WebhookEvent{
		EventType:     "transaction.processed",
		TransactionID: "tx_a",
		Paid:          true,
	}}
	h, codeRepo, paymentRepo := setupHandlerTest(t, gateway)
	h.Config.Webhook.SignatureSecret = "topsecret"

	if _, err := codeRepo.BulkInsert([]string{"ABC123"}); err != nil {
		t.Fatalf("seed codes failed: %v", err)
	}
	seedPayment(t, paymentRepo, "unitv_1_a", "tx_a")

	body := `{"event":"transaction.processed"}`

	// Missing and wrong signatures are acknowledged without fulfilling.
	for _, headers := range []map[string]string{
		nil,
		{"X-Signature": "deadbeef"},
	} {
		w, payload := postJSON(t, h.PaymentWebhook, body, headers)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if payload["status"] != constants.FulfillTagReceived {
			t.Fatalf("status tag = %v, want received", payload["status"])
		}
	}
	reloaded, _ := paymentRepo.GetByProviderTxID("tx_a")
	if reloaded.Status != constants.PaymentStatusPending {
		t.Fatalf("payment fulfilled despite bad signature")
	}

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write([]byte(body))
	signature := hex.EncodeToString(mac.Sum(nil))

	_, payload := postJSON(t, h.PaymentWebhook, body, map[string]string{"X-Signature": signature})
	if payload["status"] != constants.FulfillTagSuccess {
		t.Fatalf("status tag = %v, want success", payload["status"])
	}
}

func TestCheckPaymentUnknownID(t *testing.T) {
	h, _, _ := setupHandlerTest(t, &stubGateway{})

	w, payload := postJSON(t, h.CheckPayment, `{"paymentId":"tx_missing"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if payload["success"] != false {
		t.Fatalf("success = %v, want false", payload["success"])
	}
	if payload["error"] != "payment not found" {
		t.Fatalf("error = %v", payload["error"])
	}
}
