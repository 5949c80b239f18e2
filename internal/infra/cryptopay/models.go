package cryptopay

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate - котировка провайдера: 1 Source = Rate Target.
type ExchangeRate struct {
	Source  string          `json:"source"`
	Target  string          `json:"target"`
	Rate    decimal.Decimal `json:"rate"`
	IsValid bool            `json:"is_valid"`
}

type Currency struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	IsBlockchain bool   `json:"is_blockchain"`
	IsStablecoin bool   `json:"is_stablecoin"`
	IsFiat       bool   `json:"is_fiat"`
}

type AppInfo struct {
	AppID   int64  `json:"app_id"`
	Name    string `json:"name"`
	BotUser string `json:"payment_processing_bot_username"`
}

type Invoice struct {
	InvoiceID   int64           `json:"invoice_id"`
	Status      string          `json:"status"`
	Hash        string          `json:"hash"`
	Asset       string          `json:"asset,omitempty"`
	Fiat        string          `json:"fiat,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	PayURL      string          `json:"pay_url"`
	Description string          `json:"description,omitempty"`
	Payload     string          `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
}

// CreateInvoiceRequest - параметры createInvoice. Сумма передается строкой,
// как того требует API.
type CreateInvoiceRequest struct {
	CurrencyType   string `json:"currency_type"`
	Fiat           string `json:"fiat,omitempty"`
	Asset          string `json:"asset,omitempty"`
	Amount         string `json:"amount"`
	AcceptedAssets string `json:"accepted_assets,omitempty"`
	Description    string `json:"description,omitempty"`
	Payload        string `json:"payload,omitempty"`
	ExpiresIn      int    `json:"expires_in,omitempty"`
}

// WebhookUpdate - событие вебхука (сейчас провайдер шлет только invoice_paid).
type WebhookUpdate struct {
	UpdateID    int64     `json:"update_id"`
	UpdateType  string    `json:"update_type"`
	RequestDate time.Time `json:"request_date"`
	Payload     Invoice   `json:"payload"`
}

const UpdateTypeInvoicePaid = "invoice_paid"
