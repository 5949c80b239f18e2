package setrate

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/telegram/flows"
	"crypto-topup-bot/internal/telegram/states"
)

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type rateStore interface {
	Get() decimal.Decimal
	Set(rate decimal.Decimal) (decimal.Decimal, error)
}

type stateManager interface {
	SetState(userID int64, state states.State, data any)
	GetSetRateData(userID int64) (*flows.SetRateFlowData, error)
	Clear(userID int64)
}

type localizer interface {
	Get(key string, params map[string]interface{}) string
}
