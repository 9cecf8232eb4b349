package yookassa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetupbot/internal/domain"
)

func TestClient_CreatePayment(t *testing.T) {
	var got createPaymentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/payments", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("Idempotence-Key"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "shop", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pay-1","status":"pending","confirmation":{"type":"redirect","confirmation_url":"https://yoomoney.ru/checkout/pay-1"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Config{ShopID: "shop", SecretKey: "secret", APIURL: srv.URL + "/v3/"})
	res, err := c.CreatePayment(context.Background(), domain.PaymentRequest{
		DonationID:     "don-1",
		EventID:        "ev-1",
		Amount:         30000,
		Currency:       "RUB",
		Description:    strings.Repeat("д", 200),
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, &domain.PaymentResult{
		Provider:        "yookassa",
		ExternalID:      "pay-1",
		Status:          "pending",
		ConfirmationURL: "https://yoomoney.ru/checkout/pay-1",
	}, res)

	assert.Equal(t, amount{Value: "300.00", Currency: "RUB"}, got.Amount)
	assert.True(t, got.Capture)
	assert.Equal(t, "redirect", got.Confirmation.Type)
	assert.Equal(t, "https://t.me", got.Confirmation.ReturnURL)
	assert.Equal(t, "don-1", got.Metadata["donation_id"])
	assert.Equal(t, 127, len([]rune(got.Description)))
}

func TestClient_PaymentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/pay-1":
			_, _ = w.Write([]byte(`{"id":"pay-1","status":"succeeded"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"type":"error","code":"not_found","description":"Payment not found"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), Config{ShopID: "shop", SecretKey: "secret", APIURL: srv.URL})
	res, err := c.PaymentStatus(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", res.Status)
	assert.Empty(t, res.ConfirmationURL)

	_, err = c.PaymentStatus(context.Background(), "pay-2")
	require.ErrorContains(t, err, "Payment not found")
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(nil, Config{ShopID: "shop"})
	_, err := c.CreatePayment(context.Background(), domain.PaymentRequest{Amount: 100})
	require.ErrorIs(t, err, domain.ErrPaymentNotConfigured)
	_, err = c.PaymentStatus(context.Background(), "pay-1")
	require.ErrorIs(t, err, domain.ErrPaymentNotConfigured)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "дд", truncate("ддд", 2))
}
