package topup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	infratg "crypto-topup-bot/internal/infra/telegram"
	"crypto-topup-bot/internal/stories/amounts"
	"crypto-topup-bot/internal/stories/orders"
)

// Handler принимает данные мини-аппа, создает заявку и рассылает уведомления:
// подтверждение заявителю и карточку с кнопками в операторские чаты.
type Handler struct {
	bot           botApi
	orders        orderService
	loc           localizer
	adminChatID   int64
	forwardChatID int64
	logger        *slog.Logger
}

func NewHandler(
	bot botApi,
	orderService orderService,
	loc localizer,
	adminChatID int64,
	forwardChatID int64,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:           bot,
		orders:        orderService,
		loc:           loc,
		adminChatID:   adminChatID,
		forwardChatID: forwardChatID,
		logger:        logger,
	}
}

// webAppPayload - JSON, который присылает мини-апп. Сумма может прийти
// и числом, и строкой, поэтому тип свободный. Старые версии мини-аппа
// шлют base_amount и steam_login.
type webAppPayload struct {
	Amount     interface{} `json:"amount"`
	BaseAmount interface{} `json:"base_amount"`
	Login      string      `json:"login"`
	SteamLogin string      `json:"steam_login"`
}

func (p webAppPayload) rawAmount() string {
	if p.Amount != nil {
		return fmt.Sprint(p.Amount)
	}
	if p.BaseAmount != nil {
		return fmt.Sprint(p.BaseAmount)
	}
	return ""
}

func (p webAppPayload) login() string {
	if p.Login != "" {
		return strings.TrimSpace(p.Login)
	}
	return strings.TrimSpace(p.SteamLogin)
}

func (h *Handler) HandleWebAppData(update *infratg.Update) error {
	ctx := context.Background()

	msg := update.Message
	if msg == nil || msg.From == nil || update.WebAppData == nil {
		return nil
	}

	raw := update.WebAppData.Data
	h.logger.Info("Получены данные mini-app",
		slog.Int64("user_id", msg.From.ID),
		slog.String("raw", raw))

	var payload webAppPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		h.logger.Error("Не удалось разобрать данные mini-app", slog.Any("error", err))
		return h.send(msg.Chat.ID, h.loc.Get("common.error", nil))
	}

	order, err := h.orders.CreateOrder(ctx, orders.CreateOrderRequest{
		RequesterUserID: msg.From.ID,
		RequesterChatID: msg.Chat.ID,
		RawAmount:       payload.rawAmount(),
		Login:           payload.login(),
	})
	if err != nil {
		if errors.Is(err, amounts.ErrInvalidAmount) {
			return h.send(msg.Chat.ID, h.loc.Get("topup.invalid_amount", map[string]interface{}{
				"reason": err.Error(),
			}))
		}
		h.logger.Error("Не удалось создать заявку", slog.Any("error", err))
		return h.send(msg.Chat.ID, h.loc.Get("common.error", nil))
	}

	if err := h.sendConfirmation(order); err != nil {
		h.logger.Error("Не удалось отправить подтверждение заявителю",
			slog.String("order_uid", order.UID),
			slog.Any("error", err))
	}

	// Если карточка не дошла до админ-чата, заявку никто не обработает.
	// Сообщаем заявителю об ошибке вместо тихой потери заявки.
	if err := h.notifyOperators(msg, order); err != nil {
		return h.send(msg.Chat.ID, h.loc.Get("common.error", nil))
	}
	return nil
}

func (h *Handler) sendConfirmation(order *orders.Order) error {
	cryptoLine := ""
	if order.SecondaryAmount != nil {
		cryptoLine = h.loc.Get("topup.crypto_line", map[string]interface{}{
			"crypto": amounts.FormatForDisplay(*order.SecondaryAmount, "USDT"),
		})
	}

	text := h.loc.Get("topup.accepted", map[string]interface{}{
		"base":        order.BaseAmount.StringFixed(2),
		"total":       order.TotalWithCommission.StringFixed(2),
		"commission":  h.orders.CommissionPercent().String(),
		"crypto_line": cryptoLine,
	})

	return h.send(order.RequesterChatID, text)
}

// notifyOperators рассылает карточку заявки по операторским чатам.
// Ошибка отправки в админ-чат возвращается наверх, потеря форварда
// только логируется.
func (h *Handler) notifyOperators(msg *tgbotapi.Message, order *orders.Order) error {
	username := msg.From.UserName
	if username == "" {
		username = h.loc.Get("topup.no_username", nil)
	}
	fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)

	loginLine := ""
	if order.Login != "" {
		loginLine = h.loc.Get("topup.operator_login_line", map[string]interface{}{
			"login": order.Login,
		})
	}
	cryptoLine := ""
	if order.SecondaryAmount != nil {
		cryptoLine = h.loc.Get("topup.crypto_line", map[string]interface{}{
			"crypto": amounts.FormatForDisplay(*order.SecondaryAmount, "USDT"),
		})
	}

	text := h.loc.Get("topup.operator_new", map[string]interface{}{
		"timestamp":   order.CreatedAt.Format("2006-01-02 15:04:05"),
		"full_name":   fullName,
		"username":    username,
		"user_id":     order.RequesterUserID,
		"chat_id":     order.RequesterChatID,
		"login_line":  loginLine,
		"base":        order.BaseAmount.StringFixed(2),
		"total":       order.TotalWithCommission.StringFixed(2),
		"commission":  h.orders.CommissionPercent().String(),
		"crypto_line": cryptoLine,
		"rate":        order.Rate.String(),
	})

	keyboard := h.operatorKeyboard(order)

	var adminErr error
	for _, chatID := range []int64{h.adminChatID, h.forwardChatID} {
		if chatID == 0 {
			continue
		}
		operatorMsg := tgbotapi.NewMessage(chatID, text)
		operatorMsg.ParseMode = tgbotapi.ModeHTML
		operatorMsg.ReplyMarkup = keyboard
		if _, err := h.bot.Send(operatorMsg); err != nil {
			h.logger.Error("Не удалось отправить заявку в операторский чат",
				slog.Int64("chat_id", chatID),
				slog.Any("error", err))
			if chatID == h.adminChatID {
				adminErr = err
			}
		}
	}
	return adminErr
}

// operatorKeyboard строит кнопки для действий, доступных по новой заявке.
func (h *Handler) operatorKeyboard(order *orders.Order) tgbotapi.InlineKeyboardMarkup {
	actions := h.orders.FollowUpActions(orders.StatusNew)

	var buttons []tgbotapi.InlineKeyboardButton
	for _, action := range actions {
		label := h.loc.Get("buttons."+string(action), nil)
		token := h.orders.TokenFor(action, order)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, token.Encode()))
	}

	// По две кнопки в ряд, чтобы карточка не расползалась
	var rows [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 2 {
		rows = append(rows, buttons[:2])
		buttons = buttons[2:]
	}
	if len(buttons) > 0 {
		rows = append(rows, buttons)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := h.bot.Send(msg)
	return err
}
