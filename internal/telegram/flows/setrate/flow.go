package setrate

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/telegram/flows"
	"crypto-topup-bot/internal/telegram/states"
)

// Handler меняет курс конвертации по команде /setrate.
// С аргументом курс меняется сразу, без аргумента бот показывает текущий
// курс и ждет новое значение следующим сообщением.
type Handler struct {
	bot        botApi
	rates      rateStore
	sm         stateManager
	loc        localizer
	commission decimal.Decimal
	logger     *slog.Logger
}

func NewHandler(
	bot botApi,
	rates rateStore,
	sm stateManager,
	loc localizer,
	commission decimal.Decimal,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:        bot,
		rates:      rates,
		sm:         sm,
		loc:        loc,
		commission: commission,
		logger:     logger,
	}
}

// Start обрабатывает команду /setrate. args - хвост команды.
func (h *Handler) Start(userID, chatID int64, args string) error {
	args = strings.TrimSpace(args)
	if args == "" {
		msg := tgbotapi.NewMessage(chatID, h.loc.Get("setrate.current", map[string]interface{}{
			"rate":       h.rates.Get().String(),
			"commission": h.commission.String(),
		}))
		msg.ParseMode = tgbotapi.ModeHTML

		sent, err := h.bot.Send(msg)
		if err != nil {
			return err
		}

		h.sm.SetState(userID, states.AdminSetRateWaitValue, &flows.SetRateFlowData{
			PromptMessageID: sent.MessageID,
		})
		return nil
	}

	return h.apply(userID, chatID, args)
}

// Handle обрабатывает значение курса, присланное после /setrate без аргумента.
func (h *Handler) Handle(update *tgbotapi.Update, state states.State) error {
	if state != states.AdminSetRateWaitValue {
		return fmt.Errorf("unknown setrate state: %s", state)
	}
	if update.Message == nil {
		return nil
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	// Подсказку с текущим курсом убираем, чтобы не копилась в чате
	if data, err := h.sm.GetSetRateData(userID); err == nil {
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(chatID, data.PromptMessageID))
	}

	return h.apply(userID, chatID, strings.TrimSpace(update.Message.Text))
}

func (h *Handler) apply(userID, chatID int64, raw string) error {
	h.sm.Clear(userID)

	newRate, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return h.send(chatID, h.loc.Get("setrate.invalid", nil))
	}

	old, err := h.rates.Set(newRate)
	if err != nil {
		return h.send(chatID, h.loc.Get("setrate.invalid", nil))
	}

	h.logger.Info("Курс USDT обновлен",
		slog.Int64("admin_id", userID),
		slog.String("old", old.String()),
		slog.String("new", newRate.String()))

	return h.send(chatID, h.loc.Get("setrate.updated", map[string]interface{}{
		"old_rate": old.String(),
		"new_rate": newRate.String(),
	}))
}

func (h *Handler) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := h.bot.Send(msg)
	return err
}
