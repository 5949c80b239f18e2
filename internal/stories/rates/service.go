package rates

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/stories/amounts"
)

const baseCurrency = "RUB"

var currencyNames = map[string]string{
	"USDT": "Tether",
	"TON":  "Toncoin",
	"BTC":  "Bitcoin",
	"ETH":  "Ethereum",
	"LTC":  "Litecoin",
	"BNB":  "BNB",
	"TRX":  "TRON",
	"USDC": "USD Coin",
}

// CurrencyName возвращает человекочитаемое название актива.
func CurrencyName(asset string) string {
	if name, ok := currencyNames[asset]; ok {
		return name
	}
	return asset
}

// Service отдает курсы криптовалют к рублю из Crypto Pay API.
// Котировки кэшируются: их обновляет cron-воркер, а при недоступности
// провайдера отдается последний успешный снимок.
type Service struct {
	client   cryptoPayClient
	cacheTTL time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	cached    map[string]decimal.Decimal
	fetchedAt time.Time
}

func NewService(client cryptoPayClient, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Enabled - настроен ли провайдер курсов (для /health).
func (s *Service) Enabled() bool {
	return s.client != nil
}

// RatesFromRUB возвращает курсы вида 1 RUB = X crypto. Провайдер котирует
// в обратную сторону (1 crypto = Y RUB), поэтому курс инвертируется.
func (s *Service) RatesFromRUB(ctx context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	fetchedAt := s.fetchedAt
	fresh := s.cached != nil && time.Since(fetchedAt) < s.cacheTTL
	cached := s.cached
	s.mu.RUnlock()

	if fresh {
		return cached, nil
	}

	if err := s.Refresh(ctx); err != nil {
		if cached != nil {
			// Отдаем устаревший снимок, чтобы API не падал из-за провайдера
			s.logger.Warn("Провайдер курсов недоступен, отдаю кэш",
				slog.Time("fetched_at", fetchedAt),
				slog.Any("error", err))
			return cached, nil
		}
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached, nil
}

// Refresh перечитывает котировки у провайдера и обновляет кэш.
func (s *Service) Refresh(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("crypto pay client не сконфигурирован")
	}

	quotes, err := s.client.GetExchangeRates(ctx)
	if err != nil {
		return fmt.Errorf("получение курсов: %w", err)
	}

	one := decimal.New(1, 0)
	inverted := make(map[string]decimal.Decimal)
	for _, q := range quotes {
		if q.Target != baseCurrency || !q.IsValid || !q.Rate.IsPositive() {
			continue
		}
		inverted[q.Source] = one.Div(q.Rate)
	}

	s.mu.Lock()
	s.cached = inverted
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("Курсы обновлены", slog.Any("assets", lo.Keys(inverted)))
	return nil
}

// ConvertRUBToCrypto переводит рублевую сумму во все доступные активы
// с точностью отображения актива (6 знаков BTC/ETH, 2 для стейблкоинов,
// 4 для остальных).
func (s *Service) ConvertRUBToCrypto(ctx context.Context, rubAmount decimal.Decimal) (map[string]decimal.Decimal, error) {
	if rubAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: сумма должна быть больше 0", amounts.ErrInvalidAmount)
	}

	fromRUB, err := s.RatesFromRUB(ctx)
	if err != nil {
		return nil, err
	}

	conversions := make(map[string]decimal.Decimal, len(fromRUB))
	for asset, rate := range fromRUB {
		conversions[asset] = amounts.RoundForAsset(rubAmount.Mul(rate), asset)
	}
	return conversions, nil
}
