package rates

import (
	"context"

	"crypto-topup-bot/internal/infra/cryptopay"
)

type cryptoPayClient interface {
	GetExchangeRates(ctx context.Context) ([]cryptopay.ExchangeRate, error)
}
