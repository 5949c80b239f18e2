package disposition

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crypto-topup-bot/internal/stories/orders"
)

type mockBotApi struct {
	Sent     []tgbotapi.Chattable
	Requests []tgbotapi.Chattable
}

func (m *mockBotApi) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.Sent = append(m.Sent, c)
	return tgbotapi.Message{MessageID: len(m.Sent)}, nil
}

func (m *mockBotApi) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.Requests = append(m.Requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type mockOrderService struct {
	Status    orders.Status
	Err       error
	Tokens    []orders.Token
	FollowUps []orders.Action
}

func (m *mockOrderService) Disposition(ctx context.Context, token *orders.Token) (orders.Status, error) {
	m.Tokens = append(m.Tokens, *token)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Status, nil
}

func (m *mockOrderService) FollowUpActions(status orders.Status) []orders.Action {
	return m.FollowUps
}

type mockLocalizer struct{}

func (m *mockLocalizer) Get(key string, params map[string]interface{}) string {
	if amount, ok := params["amount"]; ok {
		return key + " amount=" + amount.(string)
	}
	return key
}

func callbackUpdate(data string) *tgbotapi.Update {
	return &tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: 555},
			Message: &tgbotapi.Message{
				MessageID: 42,
				Chat:      &tgbotapi.Chat{ID: -1001},
				Text:      "🔔 НОВАЯ ЗАЯВКА НА ПОПОЛНЕНИЕ",
			},
			Data: data,
		},
	}
}

func TestHandle_CompleteNotifiesRequesterAndMarksCard(t *testing.T) {
	bot := &mockBotApi{}
	svc := &mockOrderService{Status: orders.StatusCompleted}
	h := NewHandler(bot, svc, &mockLocalizer{}, slog.Default())

	if err := h.Handle(callbackUpdate("complete_100_200_287.50")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(svc.Tokens) != 1 {
		t.Fatalf("got %d dispositions, want 1", len(svc.Tokens))
	}
	if svc.Tokens[0].Action != orders.ActionComplete || svc.Tokens[0].ChatID != 200 {
		t.Errorf("unexpected token: %+v", svc.Tokens[0])
	}

	// Уведомление заявителю + редактирование карточки
	if len(bot.Sent) != 2 {
		t.Fatalf("got %d sent, want 2", len(bot.Sent))
	}

	notify := bot.Sent[0].(tgbotapi.MessageConfig)
	if notify.ChatID != 200 {
		t.Errorf("notification chat = %d, want 200", notify.ChatID)
	}
	if !strings.Contains(notify.Text, "status.completed") || !strings.Contains(notify.Text, "amount=287.50") {
		t.Errorf("notification text = %q", notify.Text)
	}

	edit := bot.Sent[1].(tgbotapi.EditMessageTextConfig)
	if edit.ChatID != -1001 || edit.MessageID != 42 {
		t.Errorf("edit target = %d/%d", edit.ChatID, edit.MessageID)
	}
	if !strings.HasPrefix(edit.Text, "🔔 НОВАЯ ЗАЯВКА НА ПОПОЛНЕНИЕ") {
		t.Errorf("original card text lost: %q", edit.Text)
	}
	if !strings.Contains(edit.Text, "markers.completed") {
		t.Errorf("status marker missing: %q", edit.Text)
	}
	if edit.ReplyMarkup != nil {
		t.Errorf("terminal status must not get follow-up buttons")
	}

	// Callback обязан быть закрыт
	if len(bot.Requests) != 1 {
		t.Errorf("got %d callback answers, want 1", len(bot.Requests))
	}
}

func TestHandle_FollowUpKeyboardAfterAccept(t *testing.T) {
	bot := &mockBotApi{}
	svc := &mockOrderService{
		Status:    orders.StatusAccepted,
		FollowUps: []orders.Action{orders.ActionMarkPaid},
	}
	h := NewHandler(bot, svc, &mockLocalizer{}, slog.Default())

	if err := h.Handle(callbackUpdate("accept_100_200_287.50_cGxheWVyMQ")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	edit := bot.Sent[1].(tgbotapi.EditMessageTextConfig)
	if edit.ReplyMarkup == nil {
		t.Fatal("follow-up keyboard missing")
	}
	button := edit.ReplyMarkup.InlineKeyboard[0][0]
	// Токен следующего шага сохраняет получателя, сумму и логин
	if *button.CallbackData != "markpaid_100_200_287.50_cGxheWVyMQ" {
		t.Errorf("follow-up callback = %q", *button.CallbackData)
	}
}

func TestHandle_MalformedToken(t *testing.T) {
	bot := &mockBotApi{}
	svc := &mockOrderService{Status: orders.StatusCompleted}
	h := NewHandler(bot, svc, &mockLocalizer{}, slog.Default())

	if err := h.Handle(callbackUpdate("complete_abc_200_287.50")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(svc.Tokens) != 0 {
		t.Errorf("disposition applied for malformed token")
	}

	// Только правка карточки, заявителю ничего не уходит
	if len(bot.Sent) != 1 {
		t.Fatalf("got %d sent, want 1", len(bot.Sent))
	}
	edit := bot.Sent[0].(tgbotapi.EditMessageTextConfig)
	if !strings.Contains(edit.Text, "markers.malformed") {
		t.Errorf("malformed marker missing: %q", edit.Text)
	}
}

func TestHandle_ForeignAction(t *testing.T) {
	bot := &mockBotApi{}
	svc := &mockOrderService{Err: orders.ErrMalformedToken}
	h := NewHandler(bot, svc, &mockLocalizer{}, slog.Default())

	if err := h.Handle(callbackUpdate("markpaid_100_200_287.50")); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(bot.Sent) != 1 {
		t.Fatalf("got %d sent, want 1", len(bot.Sent))
	}
	edit := bot.Sent[0].(tgbotapi.EditMessageTextConfig)
	if !strings.Contains(edit.Text, "markers.malformed") {
		t.Errorf("marker missing: %q", edit.Text)
	}
}
