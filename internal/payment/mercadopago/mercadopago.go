package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitv-next/internal/payment"
)

var (
	ErrConfigInvalid   = errors.New("mercadopago config invalid")
	ErrRequestFailed   = errors.New("mercadopago request failed")
	ErrResponseInvalid = errors.New("mercadopago response invalid")
	ErrChargeNotFound  = errors.New("mercadopago charge not found")
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.mercadopago.com"

const defaultTimeout = 15 * time.Second

// Config holds the Mercado Pago API credentials.
type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Client talks to the Mercado Pago payments API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a Client. The access token is mandatory.
func New(cfg Config) (*Client, error) {
	cfg.normalize()
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Name() string { return "mercadopago" }

type paymentResponse struct {
	ID                 int64  `json:"id"`
	Status             string `json:"status"`
	ExternalReference  string `json:"external_reference"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (p *paymentResponse) toCharge() *payment.Charge {
	return &payment.Charge{
		TransactionID:     strconv.FormatInt(p.ID, 10),
		ExternalReference: p.ExternalReference,
		Paid:              isPaid(p.Status),
		RawStatus:         p.Status,
		QRText:            p.PointOfInteraction.TransactionData.QRCode,
		QRImageBase64:     p.PointOfInteraction.TransactionData.QRCodeBase64,
	}
}

// CreateCharge mints a PIX payment. Mercado Pago takes the amount as a
// decimal in the account currency, so cents are converted here.
func (c *Client) CreateCharge(ctx context.Context, input payment.CreateChargeInput) (*payment.Charge, error) {
	if input.ExternalReference == "" || input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: external reference and amount are required", ErrConfigInvalid)
	}

	params := map[string]interface{}{
		"transaction_amount": float64(input.AmountCents) / 100,
		"payment_method_id":  "pix",
		"external_reference": input.ExternalReference,
		"description":        input.Description,
		"payer": map[string]interface{}{
			"email":      input.BuyerEmail,
			"first_name": input.BuyerName,
		},
	}

	respBytes, err := c.doJSON(ctx, http.MethodPost, "/v1/payments", params)
	if err != nil {
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.ID == 0 || resp.PointOfInteraction.TransactionData.QRCode == "" {
		return nil, fmt.Errorf("%w: missing payment id or pix qr code", ErrResponseInvalid)
	}
	if resp.ExternalReference == "" {
		resp.ExternalReference = input.ExternalReference
	}
	return resp.toCharge(), nil
}

// GetChargeByExternalReference searches payments by external reference
// and returns the newest match.
func (c *Client) GetChargeByExternalReference(ctx context.Context, externalReference string) (*payment.Charge, error) {
	if externalReference == "" {
		return nil, fmt.Errorf("%w: external reference is required", ErrConfigInvalid)
	}

	path := "/v1/payments/search?sort=date_created&criteria=desc&external_reference=" + externalReference
	respBytes, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []paymentResponse `json:"results"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if len(resp.Results) == 0 {
		return nil, ErrChargeNotFound
	}
	return resp.Results[0].toCharge(), nil
}

// GetCharge pulls a single payment by its Mercado Pago id.
func (c *Client) GetCharge(ctx context.Context, transactionID string) (*payment.Charge, error) {
	respBytes, err := c.doJSON(ctx, http.MethodGet, "/v1/payments/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	var resp paymentResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.ID == 0 {
		return nil, ErrChargeNotFound
	}
	return resp.toCharge(), nil
}

// ResolveWebhook parses a Mercado Pago webhook notification. The
// envelope carries only the payment id, so the current status is pulled
// from the API before the event is returned.
func (c *Client) ResolveWebhook(ctx context.Context, body []byte) (*payment.WebhookEvent, error) {
	var envelope struct {
		Type   string `json:"type"`
		Action string `json:"action"`
		Data   struct {
			ID json.Number `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if envelope.Type != "" && envelope.Type != "payment" {
		return &payment.WebhookEvent{EventType: envelope.Type}, nil
	}
	id := envelope.Data.ID.String()
	if id == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrResponseInvalid)
	}

	charge, err := c.GetCharge(ctx, id)
	if err != nil {
		return nil, err
	}
	eventType := envelope.Action
	if eventType == "" {
		eventType = envelope.Type
	}
	return &payment.WebhookEvent{
		EventType:     eventType,
		TransactionID: charge.TransactionID,
		Paid:          charge.Paid,
	}, nil
}

func isPaid(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "approved")
}

func (c *Client) doJSON(ctx context.Context, method, path string, params map[string]interface{}) ([]byte, error) {
	var reqBody io.Reader
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrChargeNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
