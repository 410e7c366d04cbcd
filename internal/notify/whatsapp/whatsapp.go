// Package whatsapp delivers activation codes over WhatsApp through an
// Evolution API gateway.
package whatsapp

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
)

var (
	ErrConfigInvalid = errors.New("whatsapp config invalid")
	ErrRequestFailed = errors.New("whatsapp request failed")
	ErrNotConnected  = errors.New("whatsapp instance not connected")
)

const defaultTimeout = 20 * time.Second

// Config holds the Evolution API gateway settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Instance string
	Timeout  time.Duration
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Instance = strings.TrimSpace(c.Instance)
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Client sends text messages through one Evolution API instance.
type Client struct {
	cfg  Config
	http *http.Client
}

// New builds a Client. Base URL, API key and instance are mandatory.
func New(cfg Config) (*Client, error) {
	cfg.normalize()
	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.Instance == "" {
		return nil, fmt.Errorf("%w: base_url, api_key and instance are required", ErrConfigInvalid)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// SendText sends a plain text message to the given phone number.
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	number := FormatPhone(phone)
	if number == "" {
		return fmt.Errorf("%w: empty phone number", ErrConfigInvalid)
	}

	params := map[string]interface{}{
		"number": number,
		"text":   text,
	}
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	endpoint := c.cfg.BaseURL + "/message/sendText/" + c.cfg.Instance
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	return nil
}

// Connected reports whether the WhatsApp instance has an open session.
func (c *Client) Connected(ctx context.Context) (bool, error) {
	endpoint := c.cfg.BaseURL + "/instance/connectionState/" + c.cfg.Instance
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}
	var state struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := json.Unmarshal(respBytes, &state); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return strings.EqualFold(state.Instance.State, "open"), nil
}

// FormatPhone strips non-digits and prefixes the Brazilian country code
// when the number looks like a bare local number.
func FormatPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	cleaned := digits.String()
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "55") {
		return cleaned
	}
	if len(cleaned) == 11 || len(cleaned) == 10 {
		return "55" + cleaned
	}
	return cleaned
}
