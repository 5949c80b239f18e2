package cryptopay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiToken:   token,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGetExchangeRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(tokenHeader); got != "test-token" {
			t.Errorf("token header = %q, want test-token", got)
		}
		if r.URL.Path != "/getExchangeRates" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":[
			{"source":"USDT","target":"RUB","rate":"95.0","is_valid":true},
			{"source":"BTC","target":"RUB","rate":"6500000","is_valid":true},
			{"source":"TON","target":"USD","rate":"5.2","is_valid":true}
		]}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "test-token")
	rates, err := client.GetExchangeRates(context.Background())
	if err != nil {
		t.Fatalf("GetExchangeRates: %v", err)
	}

	if len(rates) != 3 {
		t.Fatalf("got %d rates, want 3", len(rates))
	}
	if rates[0].Source != "USDT" || rates[0].Target != "RUB" {
		t.Errorf("unexpected first rate: %+v", rates[0])
	}
	if rates[0].Rate.StringFixed(1) != "95.0" {
		t.Errorf("rate = %s, want 95.0", rates[0].Rate)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":false,"error":{"code":401,"name":"UNAUTHORIZED"}}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "bad-token")
	if _, err := client.GetMe(context.Background()); err == nil {
		t.Fatal("GetMe should surface API errors")
	}
}

func TestCreateInvoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if len(body) == 0 {
			t.Error("empty request body")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":{"invoice_id":42,"status":"active","amount":"287.50","pay_url":"https://t.me/CryptoBot?start=x","created_at":"2024-01-01T00:00:00Z"}}`)
	}))
	defer server.Close()

	client := testClient(server.URL, "test-token")
	invoice, err := client.CreateInvoice(context.Background(), CreateInvoiceRequest{
		CurrencyType: "fiat",
		Fiat:         "RUB",
		Amount:       "287.50",
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if invoice.InvoiceID != 42 || invoice.Status != "active" {
		t.Errorf("unexpected invoice: %+v", invoice)
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	const token = "12345:secret"
	body := []byte(`{"update_id":1,"update_type":"invoice_paid"}`)

	secret := sha256.Sum256([]byte(token))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	validSignature := hex.EncodeToString(mac.Sum(nil))

	client := testClient("http://unused", token)

	if !client.VerifyWebhookSignature(body, validSignature) {
		t.Error("valid signature rejected")
	}
	if client.VerifyWebhookSignature(body, "deadbeef") {
		t.Error("bogus signature accepted")
	}
	if client.VerifyWebhookSignature([]byte(`{"tampered":true}`), validSignature) {
		t.Error("signature accepted for tampered body")
	}

	other := testClient("http://unused", "other-token")
	if other.VerifyWebhookSignature(body, validSignature) {
		t.Error("signature accepted with the wrong token")
	}
}
