package disposition

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crypto-topup-bot/internal/stories/orders"
)

// Handler обрабатывает нажатия операторских кнопок на карточке заявки.
// Вся информация о заявке живет в callback data, хранилище не читается.
type Handler struct {
	bot    botApi
	orders orderService
	loc    localizer
	logger *slog.Logger
}

func NewHandler(bot botApi, orderService orderService, loc localizer, logger *slog.Logger) *Handler {
	return &Handler{
		bot:    bot,
		orders: orderService,
		loc:    loc,
		logger: logger,
	}
}

func (h *Handler) Handle(update *tgbotapi.Update) error {
	ctx := context.Background()

	query := update.CallbackQuery
	if query == nil || query.Message == nil {
		return nil
	}

	// Снимаем "часики" сразу, дальше можно работать спокойно
	if _, err := h.bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		h.logger.Error("Не удалось ответить на callback", slog.Any("error", err))
	}

	token, err := orders.DecodeToken(query.Data)
	if err != nil {
		h.logger.Error("Некорректный callback payload",
			slog.String("data", query.Data),
			slog.Any("error", err))
		return h.appendMarker(query, h.loc.Get("markers.malformed", nil), nil)
	}

	status, err := h.orders.Disposition(ctx, token)
	if err != nil {
		h.logger.Error("Действие по заявке отклонено",
			slog.String("action", string(token.Action)),
			slog.Any("error", err))
		return h.appendMarker(query, h.loc.Get("markers.malformed", nil), nil)
	}

	// Уведомляем заявителя о новом статусе
	notifyErr := h.notifyRequester(token, status)
	if notifyErr != nil {
		h.logger.Error("Не удалось уведомить заявителя",
			slog.Int64("chat_id", token.ChatID),
			slog.Any("error", notifyErr))
		return h.appendMarker(query, h.loc.Get("markers.notify_error", nil), nil)
	}

	// Дописываем статус в карточку и, если этап не финальный,
	// вешаем кнопки следующего шага
	keyboard := h.followUpKeyboard(token, status)
	return h.appendMarker(query, h.loc.Get("markers."+string(status), nil), keyboard)
}

func (h *Handler) notifyRequester(token *orders.Token, status orders.Status) error {
	text := h.loc.Get("status."+string(status), map[string]interface{}{
		"amount": token.Amount.StringFixed(2),
	})

	msg := tgbotapi.NewMessage(token.ChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := h.bot.Send(msg)
	return err
}

// appendMarker дописывает маркер статуса в конец операторской карточки.
// Исходный текст сообщения сохраняется, история нажатий остается видна.
func (h *Handler) appendMarker(query *tgbotapi.CallbackQuery, marker string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	text := query.Message.Text + "\n\n" + marker

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = keyboard

	_, err := h.bot.Send(edit)
	return err
}

func (h *Handler) followUpKeyboard(token *orders.Token, status orders.Status) *tgbotapi.InlineKeyboardMarkup {
	actions := h.orders.FollowUpActions(status)
	if len(actions) == 0 {
		return nil
	}

	var buttons []tgbotapi.InlineKeyboardButton
	for _, action := range actions {
		next := *token
		next.Action = action
		label := h.loc.Get("buttons."+string(action), nil)
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, next.Encode()))
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(buttons)
	return &keyboard
}
