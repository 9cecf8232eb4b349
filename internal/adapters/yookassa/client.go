// Package yookassa creates and polls payments through the YooKassa REST API.
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"meetupbot/internal/domain"
)

const (
	providerName      = "yookassa"
	defaultAPIURL     = "https://api.yookassa.ru/v3"
	defaultReturnURL  = "https://t.me"
	maxDescriptionLen = 127
)

// Config holds the shop credentials.
type Config struct {
	ShopID    string
	SecretKey string
	ReturnURL string
	APIURL    string
}

type client struct {
	http   *http.Client
	config Config
}

// NewClient returns a PaymentProvider backed by YooKassa. Without credentials every
// call fails with domain.ErrPaymentNotConfigured.
func NewClient(httpClient *http.Client, config Config) domain.PaymentProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if config.ReturnURL == "" {
		config.ReturnURL = defaultReturnURL
	}
	config.APIURL = strings.TrimRight(config.APIURL, "/")
	return &client{http: httpClient, config: config}
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type createPaymentRequest struct {
	Amount       amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation confirmation      `json:"confirmation"`
	Metadata     map[string]string `json:"metadata"`
	Description  string            `json:"description"`
}

type payment struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Confirmation *confirmation `json:"confirmation"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (c *client) configured() bool {
	return c.config.ShopID != "" && c.config.SecretKey != ""
}

func (c *client) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResult, error) {
	if !c.configured() {
		return nil, domain.ErrPaymentNotConfigured
	}
	body := createPaymentRequest{
		Amount:  amount{Value: domain.FormatAmount(req.Amount), Currency: req.Currency},
		Capture: true,
		Confirmation: confirmation{
			Type:      "redirect",
			ReturnURL: c.config.ReturnURL,
		},
		Metadata: map[string]string{
			"donation_id": req.DonationID,
			"event_id":    req.EventID,
		},
		Description: truncate(req.Description, maxDescriptionLen),
	}
	if !strings.Contains(body.Amount.Value, ".") {
		body.Amount.Value += ".00"
	}
	var p payment
	if err := c.do(ctx, http.MethodPost, "/payments", req.IdempotencyKey, body, &p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return toResult(&p), nil
}

func (c *client) PaymentStatus(ctx context.Context, externalID string) (*domain.PaymentResult, error) {
	if !c.configured() {
		return nil, domain.ErrPaymentNotConfigured
	}
	var p payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+externalID, "", nil, &p); err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return toResult(&p), nil
}

func (c *client) do(ctx context.Context, method, path, idempotencyKey string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.APIURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.config.ShopID, c.config.SecretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotence-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call yookassa: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e apiError
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Description != "" {
			return fmt.Errorf("yookassa api returned status %d: %s: %s", resp.StatusCode, e.Code, e.Description)
		}
		return fmt.Errorf("yookassa api returned status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode yookassa response: %w", err)
	}
	return nil
}

func toResult(p *payment) *domain.PaymentResult {
	res := &domain.PaymentResult{Provider: providerName, ExternalID: p.ID, Status: p.Status}
	if p.Confirmation != nil {
		res.ConfirmationURL = p.Confirmation.ConfirmationURL
	}
	return res
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Notification is the webhook body YooKassa posts on payment events.
type Notification struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}
