package topup

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/stories/orders"
)

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type orderService interface {
	CreateOrder(ctx context.Context, req orders.CreateOrderRequest) (*orders.Order, error)
	TokenFor(action orders.Action, order *orders.Order) orders.Token
	FollowUpActions(status orders.Status) []orders.Action
	CommissionPercent() decimal.Decimal
}

type localizer interface {
	Get(key string, params map[string]interface{}) string
}
