package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusAccepted   Status = "accepted"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// IsTerminal - после этих статусов переходов больше нет
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Order - заявка на пополнение. Живет только в payload кнопок и в журнале,
// никакого состояния между переходами сервис не хранит.
type Order struct {
	UID                 string
	RequesterUserID     int64
	RequesterChatID     int64
	BaseAmount          decimal.Decimal
	TotalWithCommission decimal.Decimal
	SecondaryAmount     *decimal.Decimal // эквивалент в USDT, если показывается
	Rate                decimal.Decimal
	Login               string
	Status              Status
	CreatedAt           time.Time
}

// CreateOrderRequest - данные из mini-app после парсинга JSON
type CreateOrderRequest struct {
	RequesterUserID int64
	RequesterChatID int64
	RawAmount       string
	Login           string
}
