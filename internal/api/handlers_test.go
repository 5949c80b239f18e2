package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/infra/cryptopay"
	"crypto-topup-bot/internal/storage"
)

type stubRates struct {
	enabled bool
	rates   map[string]decimal.Decimal
	err     error
}

func (s *stubRates) Enabled() bool { return s.enabled }

func (s *stubRates) RatesFromRUB(ctx context.Context) (map[string]decimal.Decimal, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

func (s *stubRates) ConvertRUBToCrypto(ctx context.Context, rubAmount decimal.Decimal) (map[string]decimal.Decimal, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make(map[string]decimal.Decimal, len(s.rates))
	for asset, rate := range s.rates {
		result[asset] = rubAmount.Mul(rate)
	}
	return result, nil
}

type stubVerifier struct {
	token string
}

func (s *stubVerifier) VerifyWebhookSignature(body []byte, signature string) bool {
	secret := sha256.Sum256([]byte(s.token))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

func (s *stubVerifier) sign(body []byte) string {
	secret := sha256.Sum256([]byte(s.token))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type stubInvoiceJournal struct {
	invoices []cryptopay.Invoice
	err      error
}

func (s *stubInvoiceJournal) RecordPaidInvoice(ctx context.Context, invoice cryptopay.Invoice) error {
	if s.err != nil {
		return s.err
	}
	s.invoices = append(s.invoices, invoice)
	return nil
}

func (s *stubInvoiceJournal) GetPaidInvoice(ctx context.Context, invoiceID int64) (*storage.PaidInvoice, error) {
	for _, inv := range s.invoices {
		if inv.InvoiceID == invoiceID {
			return &storage.PaidInvoice{InvoiceID: inv.InvoiceID, Asset: inv.Asset, Amount: inv.Amount}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newTestServer(rates *stubRates, verifier *stubVerifier, journal *stubInvoiceJournal) *httptest.Server {
	srv := NewServer(rates, verifier, journal, "", slog.Default())
	return httptest.NewServer(srv.Router())
}

func TestHandleRates(t *testing.T) {
	ratesStub := &stubRates{
		enabled: true,
		rates: map[string]decimal.Decimal{
			"USDT": decimal.RequireFromString("0.0105"),
		},
	}
	ts := newTestServer(ratesStub, &stubVerifier{token: "t"}, &stubInvoiceJournal{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rates")
	if err != nil {
		t.Fatalf("GET /api/rates: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q, want *", got)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Errorf("success = false: %s", body.Error)
	}
	usdt, ok := body.Rates["USDT"]
	if !ok {
		t.Fatal("USDT rate missing")
	}
	if usdt.Rate != "0.0105" || usdt.Name != "Tether" {
		t.Errorf("unexpected USDT payload: %+v", usdt)
	}
}

func TestHandleRates_Disabled(t *testing.T) {
	ts := newTestServer(&stubRates{enabled: false}, &stubVerifier{token: "t"}, &stubInvoiceJournal{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/rates")
	if err != nil {
		t.Fatalf("GET /api/rates: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestHandleConvert(t *testing.T) {
	ratesStub := &stubRates{
		enabled: true,
		rates: map[string]decimal.Decimal{
			"USDT": decimal.RequireFromString("0.0105"),
		},
	}
	ts := newTestServer(ratesStub, &stubVerifier{token: "t"}, &stubInvoiceJournal{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/convert", "application/json",
		strings.NewReader(`{"amount":"1000"}`))
	if err != nil {
		t.Fatalf("POST /api/convert: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RubAmount != "1000" {
		t.Errorf("rub_amount = %q", body.RubAmount)
	}
	usdt := body.Conversions["USDT"]
	if usdt.Amount != "10.5" {
		t.Errorf("USDT amount = %q, want 10.5", usdt.Amount)
	}
	if usdt.Formatted != "10.50 USDT" {
		t.Errorf("formatted = %q, want '10.50 USDT'", usdt.Formatted)
	}
}

func TestHandleConvert_RejectsNonPositive(t *testing.T) {
	ts := newTestServer(&stubRates{enabled: true}, &stubVerifier{token: "t"}, &stubInvoiceJournal{})
	defer ts.Close()

	for _, payload := range []string{`{"amount":"0"}`, `{"amount":"-10"}`, `{"amount":"abc"}`, `{bad json`} {
		resp, err := http.Post(ts.URL+"/api/convert", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %s: status = %d, want 400", payload, resp.StatusCode)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(&stubRates{enabled: true}, &stubVerifier{token: "t"}, &stubInvoiceJournal{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || !body.CryptoPayEnabled {
		t.Errorf("unexpected health: %+v", body)
	}
}

func TestHandleWebhook(t *testing.T) {
	verifier := &stubVerifier{token: "secret-token"}
	journal := &stubInvoiceJournal{}
	ts := newTestServer(&stubRates{enabled: true}, verifier, journal)
	defer ts.Close()

	payload := []byte(`{
		"update_id": 1,
		"update_type": "invoice_paid",
		"payload": {"invoice_id": 42, "status": "paid", "asset": "USDT", "amount": "3.03"}
	}`)

	t.Run("valid signature records invoice", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook/cryptopay", strings.NewReader(string(payload)))
		req.Header.Set(cryptopay.SignatureHeader, verifier.sign(payload))

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST webhook: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if len(journal.invoices) != 1 || journal.invoices[0].InvoiceID != 42 {
			t.Errorf("invoice not recorded: %+v", journal.invoices)
		}
	})

	t.Run("invalid signature has no side effect", func(t *testing.T) {
		before := len(journal.invoices)

		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook/cryptopay", strings.NewReader(string(payload)))
		req.Header.Set(cryptopay.SignatureHeader, "deadbeef")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST webhook: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		if len(journal.invoices) != before {
			t.Errorf("invoice recorded despite bad signature")
		}
	})

	t.Run("redelivery acknowledged without duplicate", func(t *testing.T) {
		before := len(journal.invoices)

		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook/cryptopay", strings.NewReader(string(payload)))
		req.Header.Set(cryptopay.SignatureHeader, verifier.sign(payload))

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST webhook: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if len(journal.invoices) != before {
			t.Errorf("redelivered invoice recorded twice")
		}
	})

	t.Run("unknown update type acknowledged", func(t *testing.T) {
		other := []byte(`{"update_id": 2, "update_type": "invoice_expired", "payload": {"invoice_id": 43}}`)
		before := len(journal.invoices)

		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/webhook/cryptopay", strings.NewReader(string(other)))
		req.Header.Set(cryptopay.SignatureHeader, verifier.sign(other))

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("POST webhook: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
		if len(journal.invoices) != before {
			t.Errorf("unexpected invoice recorded")
		}
	})
}

func TestHandleConvert_InitDataCheck(t *testing.T) {
	srv := NewServer(&stubRates{
		enabled: true,
		rates:   map[string]decimal.Decimal{"USDT": decimal.RequireFromString("0.0105")},
	}, &stubVerifier{token: "t"}, &stubInvoiceJournal{}, "12345:bot-token", slog.Default())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/convert", strings.NewReader(`{"amount":"100"}`))
	req.Header.Set("X-Telegram-Init-Data", "hash=bogus&auth_date=1")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
