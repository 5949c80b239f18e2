package disposition

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crypto-topup-bot/internal/stories/orders"
)

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type orderService interface {
	Disposition(ctx context.Context, token *orders.Token) (orders.Status, error)
	FollowUpActions(status orders.Status) []orders.Action
}

type localizer interface {
	Get(key string, params map[string]interface{}) string
}
