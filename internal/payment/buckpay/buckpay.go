package buckpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unitv-next/internal/payment"
)

var (
	ErrConfigInvalid   = errors.New("buckpay config invalid")
	ErrRequestFailed   = errors.New("buckpay request failed")
	ErrResponseInvalid = errors.New("buckpay response invalid")
	ErrChargeNotFound  = errors.New("buckpay charge not found")
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.realtechdev.com.br"

const defaultTimeout = 15 * time.Second

// EventTransactionProcessed is the only webhook event BuckPay delivers
// for PIX charges.
const EventTransactionProcessed = "transaction.processed"

// Config holds the BuckPay API credentials.
type Config struct {
	BaseURL     string
	SecretToken string
	Timeout     time.Duration
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.SecretToken = strings.TrimSpace(c.SecretToken)
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Client talks to the BuckPay PIX API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a Client. The secret token is mandatory.
func New(cfg Config) (*Client, error) {
	cfg.normalize()
	if cfg.SecretToken == "" {
		return nil, fmt.Errorf("%w: secret_token is required", ErrConfigInvalid)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) Name() string { return "buckpay" }

// CreateCharge mints a PIX charge. Amounts are in cents.
func (c *Client) CreateCharge(ctx context.Context, input payment.CreateChargeInput) (*payment.Charge, error) {
	if input.ExternalReference == "" || input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: external reference and amount are required", ErrConfigInvalid)
	}

	buyer := map[string]interface{}{
		"name":  input.BuyerName,
		"email": input.BuyerEmail,
	}
	if input.BuyerPhone != "" {
		buyer["phone"] = input.BuyerPhone
	}
	params := map[string]interface{}{
		"external_id":    input.ExternalReference,
		"payment_method": "pix",
		"amount":         input.AmountCents,
		"buyer":          buyer,
	}
	if input.Description != "" {
		params["description"] = input.Description
	}

	respBytes, err := c.doJSON(ctx, http.MethodPost, "/v1/transactions", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Pix    struct {
				Code         string `json:"code"`
				QRCodeBase64 string `json:"qrcode_base64"`
			} `json:"pix"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.Data.ID == "" || resp.Data.Pix.Code == "" {
		return nil, fmt.Errorf("%w: missing transaction id or pix code", ErrResponseInvalid)
	}

	return &payment.Charge{
		TransactionID:     resp.Data.ID,
		ExternalReference: input.ExternalReference,
		Paid:              isPaid(resp.Data.Status),
		RawStatus:         resp.Data.Status,
		QRText:            resp.Data.Pix.Code,
		QRImageBase64:     resp.Data.Pix.QRCodeBase64,
	}, nil
}

// GetChargeByExternalReference pulls the current charge state.
func (c *Client) GetChargeByExternalReference(ctx context.Context, externalReference string) (*payment.Charge, error) {
	if externalReference == "" {
		return nil, fmt.Errorf("%w: external reference is required", ErrConfigInvalid)
	}

	respBytes, err := c.doJSON(ctx, http.MethodGet, "/v1/transactions/external_id/"+externalReference, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data struct {
			ID         string `json:"id"`
			Status     string `json:"status"`
			ExternalID string `json:"external_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.Data.ID == "" {
		return nil, ErrChargeNotFound
	}

	return &payment.Charge{
		TransactionID:     resp.Data.ID,
		ExternalReference: externalReference,
		Paid:              isPaid(resp.Data.Status),
		RawStatus:         resp.Data.Status,
	}, nil
}

// ResolveWebhook parses a BuckPay webhook body. The envelope already
// carries the final status so no status pull is needed.
func (c *Client) ResolveWebhook(ctx context.Context, body []byte) (*payment.WebhookEvent, error) {
	var envelope struct {
		Event string `json:"event"`
		Data  struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if envelope.Data.ID == "" {
		return nil, fmt.Errorf("%w: missing transaction id", ErrResponseInvalid)
	}
	return &payment.WebhookEvent{
		EventType:     envelope.Event,
		TransactionID: envelope.Data.ID,
		Paid:          envelope.Event == EventTransactionProcessed && isPaid(envelope.Data.Status),
	}, nil
}

func isPaid(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "paid")
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
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Buckpay API")

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
