package rates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/infra/cryptopay"
	"crypto-topup-bot/internal/stories/amounts"
)

type stubClient struct {
	quotes []cryptopay.ExchangeRate
	err    error
	calls  int
}

func (s *stubClient) GetExchangeRates(_ context.Context) ([]cryptopay.ExchangeRate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quotesFixture() []cryptopay.ExchangeRate {
	return []cryptopay.ExchangeRate{
		{Source: "USDT", Target: "RUB", Rate: decimal.RequireFromString("95"), IsValid: true},
		{Source: "BTC", Target: "RUB", Rate: decimal.RequireFromString("6500000"), IsValid: true},
		{Source: "TON", Target: "USD", Rate: decimal.RequireFromString("5.2"), IsValid: true},
		{Source: "ETH", Target: "RUB", Rate: decimal.RequireFromString("320000"), IsValid: false},
		{Source: "LTC", Target: "RUB", Rate: decimal.Zero, IsValid: true},
	}
}

func TestRatesFromRUB(t *testing.T) {
	client := &stubClient{quotes: quotesFixture()}
	svc := NewService(client, time.Minute, testLogger())

	rates, err := svc.RatesFromRUB(context.Background())
	if err != nil {
		t.Fatalf("RatesFromRUB: %v", err)
	}

	// Только валидные котировки к рублю, инвертированные
	if len(rates) != 2 {
		t.Fatalf("got %d rates, want 2 (USDT, BTC): %v", len(rates), rates)
	}

	usdt, ok := rates["USDT"]
	if !ok {
		t.Fatal("no USDT rate")
	}
	// 1/95 = 0.010526...
	if usdt.Round(6).String() != "0.010526" {
		t.Errorf("USDT rate = %s, want ~0.010526", usdt)
	}

	if _, ok := rates["TON"]; ok {
		t.Error("non-RUB quote should be filtered out")
	}
	if _, ok := rates["ETH"]; ok {
		t.Error("invalid quote should be filtered out")
	}
	if _, ok := rates["LTC"]; ok {
		t.Error("zero-rate quote should be filtered out")
	}
}

func TestRatesCached(t *testing.T) {
	client := &stubClient{quotes: quotesFixture()}
	svc := NewService(client, time.Minute, testLogger())

	for i := 0; i < 3; i++ {
		if _, err := svc.RatesFromRUB(context.Background()); err != nil {
			t.Fatalf("RatesFromRUB call %d: %v", i, err)
		}
	}

	if client.calls != 1 {
		t.Errorf("provider called %d times, want 1 (cache)", client.calls)
	}
}

func TestStaleCacheServedOnProviderFailure(t *testing.T) {
	client := &stubClient{quotes: quotesFixture()}
	svc := NewService(client, time.Nanosecond, testLogger())

	if _, err := svc.RatesFromRUB(context.Background()); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	client.err = errors.New("provider down")
	time.Sleep(time.Millisecond)

	rates, err := svc.RatesFromRUB(context.Background())
	if err != nil {
		t.Fatalf("stale cache should be served, got error: %v", err)
	}
	if len(rates) == 0 {
		t.Error("stale cache is empty")
	}
}

func TestRatesErrorWithoutCache(t *testing.T) {
	client := &stubClient{err: errors.New("provider down")}
	svc := NewService(client, time.Minute, testLogger())

	if _, err := svc.RatesFromRUB(context.Background()); err == nil {
		t.Fatal("expected error when provider is down and cache is empty")
	}
}

func TestConvertRUBToCrypto(t *testing.T) {
	client := &stubClient{quotes: quotesFixture()}
	svc := NewService(client, time.Minute, testLogger())

	conversions, err := svc.ConvertRUBToCrypto(context.Background(), decimal.RequireFromString("287.50"))
	if err != nil {
		t.Fatalf("ConvertRUBToCrypto: %v", err)
	}

	// 287.50/95 = 3.0263... -> 3.03 для стейблкоина
	if got := conversions["USDT"].StringFixed(2); got != "3.03" {
		t.Errorf("USDT = %s, want 3.03", got)
	}
	// 287.50/6500000 = 0.0000442... -> 6 знаков для BTC
	if got := conversions["BTC"].StringFixed(6); got != "0.000044" {
		t.Errorf("BTC = %s, want 0.000044", got)
	}
}

func TestConvertRejectsNonPositive(t *testing.T) {
	svc := NewService(&stubClient{quotes: quotesFixture()}, time.Minute, testLogger())

	for _, amount := range []string{"0", "-10"} {
		_, err := svc.ConvertRUBToCrypto(context.Background(), decimal.RequireFromString(amount))
		if !errors.Is(err, amounts.ErrInvalidAmount) {
			t.Errorf("amount %s: error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestStore(t *testing.T) {
	store, err := NewStore(decimal.RequireFromString("95"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if got := store.Get(); got.StringFixed(2) != "95.00" {
		t.Errorf("Get() = %s, want 95.00", got)
	}

	old, err := store.Set(decimal.RequireFromString("97.5"))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if old.StringFixed(2) != "95.00" {
		t.Errorf("old = %s, want 95.00", old)
	}
	if got := store.Get(); got.StringFixed(2) != "97.50" {
		t.Errorf("Get() after Set = %s, want 97.50", got)
	}

	// Невалидный курс не затирает текущий
	if _, err := store.Set(decimal.Zero); !errors.Is(err, amounts.ErrInvalidRate) {
		t.Errorf("Set(0) error = %v, want ErrInvalidRate", err)
	}
	if _, err := store.Set(decimal.RequireFromString("-1")); !errors.Is(err, amounts.ErrInvalidRate) {
		t.Errorf("Set(-1) error = %v, want ErrInvalidRate", err)
	}
	if got := store.Get(); got.StringFixed(2) != "97.50" {
		t.Errorf("rate changed after invalid Set: %s", got)
	}
}

func TestNewStoreRejectsNonPositive(t *testing.T) {
	if _, err := NewStore(decimal.Zero); err == nil {
		t.Error("NewStore(0) should fail")
	}
}

func TestCurrencyName(t *testing.T) {
	if got := CurrencyName("USDT"); got != "Tether" {
		t.Errorf("CurrencyName(USDT) = %q", got)
	}
	if got := CurrencyName("XYZ"); got != "XYZ" {
		t.Errorf("CurrencyName(XYZ) = %q, want passthrough", got)
	}
}

// flakyClient безопасен для конкурентных вызовов, в отличие от stubClient.
type flakyClient struct {
	mu     sync.Mutex
	quotes []cryptopay.ExchangeRate
	err    error
}

func (c *flakyClient) GetExchangeRates(_ context.Context) ([]cryptopay.ExchangeRate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.quotes, nil
}

func (c *flakyClient) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func TestRatesFromRUBConcurrentWithRefresh(t *testing.T) {
	client := &flakyClient{quotes: quotesFixture()}
	svc := NewService(client, time.Nanosecond, testLogger())

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("warm-up refresh: %v", err)
	}
	client.setErr(errors.New("provider down"))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.RatesFromRUB(context.Background()); err != nil {
					t.Errorf("RatesFromRUB: %v", err)
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			client.setErr(nil)
			_ = svc.Refresh(context.Background())
			client.setErr(errors.New("provider down"))
		}
	}()

	wg.Wait()
}
