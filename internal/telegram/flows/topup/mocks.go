package topup

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/stories/orders"
)

// MockBotApi - мок Telegram Bot API. FailChats позволяет сымитировать
// ошибку отправки в конкретный чат.
type MockBotApi struct {
	SentMessages []tgbotapi.Chattable
	FailChats    map[int64]error
}

func (m *MockBotApi) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		if err, fail := m.FailChats[msg.ChatID]; fail {
			return tgbotapi.Message{}, err
		}
	}
	m.SentMessages = append(m.SentMessages, c)
	return tgbotapi.Message{MessageID: len(m.SentMessages)}, nil
}

// MockOrderService - мок сервиса заявок
type MockOrderService struct {
	Order    *orders.Order
	Err      error
	Requests []orders.CreateOrderRequest
	Actions  []orders.Action
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req orders.CreateOrderRequest) (*orders.Order, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Order, nil
}

func (m *MockOrderService) TokenFor(action orders.Action, order *orders.Order) orders.Token {
	return orders.Token{
		Action: action,
		UserID: order.RequesterUserID,
		ChatID: order.RequesterChatID,
		Amount: order.TotalWithCommission,
		Login:  order.Login,
	}
}

func (m *MockOrderService) FollowUpActions(status orders.Status) []orders.Action {
	return m.Actions
}

func (m *MockOrderService) CommissionPercent() decimal.Decimal {
	return decimal.NewFromInt(15)
}

// MockLocalizer подставляет ключ и параметры, чтобы в тестах было видно,
// какой текст ушел и с какими значениями.
type MockLocalizer struct{}

func (m *MockLocalizer) Get(key string, params map[string]interface{}) string {
	text := key
	for _, k := range []string{"reason", "base", "total", "crypto", "login", "crypto_line", "login_line"} {
		if v, ok := params[k]; ok {
			text += " " + k + "=" + fmt.Sprint(v)
		}
	}
	return text
}
