package api

import (
	"context"

	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/infra/cryptopay"
	"crypto-topup-bot/internal/storage"
)

type ratesService interface {
	Enabled() bool
	RatesFromRUB(ctx context.Context) (map[string]decimal.Decimal, error)
	ConvertRUBToCrypto(ctx context.Context, rubAmount decimal.Decimal) (map[string]decimal.Decimal, error)
}

type webhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type invoiceJournal interface {
	RecordPaidInvoice(ctx context.Context, invoice cryptopay.Invoice) error
	GetPaidInvoice(ctx context.Context, invoiceID int64) (*storage.PaidInvoice, error)
}
