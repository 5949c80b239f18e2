package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	infratg "crypto-topup-bot/internal/infra/telegram"
	"crypto-topup-bot/internal/stories/orders"
	"crypto-topup-bot/internal/telegram/cmds"
	"crypto-topup-bot/internal/telegram/flows/disposition"
	"crypto-topup-bot/internal/telegram/flows/setrate"
	"crypto-topup-bot/internal/telegram/flows/topup"
	"crypto-topup-bot/internal/telegram/states"
)

type Router struct {
	bot          botApi
	stateManager stateManager
	adminChecker adminChecker
	loc          localizer
	rates        rateSource
	commission   decimal.Decimal
	webAppURL    string

	// Handlers
	topupHandler       *topup.Handler
	dispositionHandler *disposition.Handler
	setRateHandler     *setrate.Handler
	statsCommand       *cmds.StatsCommand
}

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type stateManager interface {
	GetState(userID int64) states.State
	SetState(userID int64, state states.State, data any)
	Clear(userID int64)
}

type adminChecker interface {
	IsAdmin(telegramID int64) bool
}

type localizer interface {
	Get(key string, params map[string]interface{}) string
}

type rateSource interface {
	Get() decimal.Decimal
}

func NewRouter(
	bot botApi,
	stateManager stateManager,
	adminChecker adminChecker,
	loc localizer,
	rates rateSource,
	commission decimal.Decimal,
	webAppURL string,
	topupHandler *topup.Handler,
	dispositionHandler *disposition.Handler,
	setRateHandler *setrate.Handler,
	statsCommand *cmds.StatsCommand,
) *Router {
	return &Router{
		bot:                bot,
		stateManager:       stateManager,
		adminChecker:       adminChecker,
		loc:                loc,
		rates:              rates,
		commission:         commission,
		webAppURL:          webAppURL,
		topupHandler:       topupHandler,
		dispositionHandler: dispositionHandler,
		setRateHandler:     setRateHandler,
		statsCommand:       statsCommand,
	}
}

func (r *Router) Route(update *infratg.Update) error {
	userID := extractUserID(update)
	if userID == 0 {
		return nil // Некорректный update
	}

	// Кнопки операторской карточки работают из любого состояния
	if update.CallbackQuery != nil {
		if orders.HasActionPrefix(update.CallbackQuery.Data) {
			if !r.adminChecker.IsAdmin(userID) {
				callback := tgbotapi.NewCallback(update.CallbackQuery.ID, "❌ Нет прав")
				_, _ = r.bot.Request(callback)
				return nil
			}
			return r.dispositionHandler.Handle(&update.Update)
		}
		// Неизвестные callback просто закрываем
		callback := tgbotapi.NewCallback(update.CallbackQuery.ID, "")
		_, _ = r.bot.Request(callback)
		return nil
	}

	if update.Message == nil {
		return nil
	}

	// Данные мини-аппа приходят обычным сообщением c web_app_data
	if update.WebAppData != nil {
		return r.topupHandler.HandleWebAppData(update)
	}

	// Команды отменяют любой флоу
	if update.Message.IsCommand() {
		r.stateManager.Clear(userID)
		return r.handleCommand(update)
	}

	state := r.stateManager.GetState(userID)
	if strings.HasPrefix(string(state), "rate_") {
		return r.setRateHandler.Handle(&update.Update, state)
	}

	return r.sendHelp(update.Message.Chat.ID)
}

func (r *Router) handleCommand(update *infratg.Update) error {
	ctx := context.Background()
	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		return r.sendWelcome(chatID, msg.From)
	case "help":
		return r.sendHelp(chatID)
	case "cancel":
		return r.send(chatID, r.loc.Get("cancel.done", nil))
	case "admin":
		return r.sendChatInfo(msg)
	case "setrate":
		if !r.adminChecker.IsAdmin(userID) {
			return r.send(chatID, r.loc.Get("common.admin_only", nil))
		}
		return r.setRateHandler.Start(userID, chatID, msg.CommandArguments())
	case "stats":
		if !r.adminChecker.IsAdmin(userID) {
			return r.send(chatID, r.loc.Get("common.admin_only", nil))
		}
		return r.statsCommand.Execute(ctx, chatID)
	default:
		return r.send(chatID, r.loc.Get("common.unknown", nil))
	}
}

func (r *Router) sendWelcome(chatID int64, user *tgbotapi.User) error {
	text := r.loc.Get("start.welcome", map[string]interface{}{
		"name": user.FirstName,
	})

	msg := tgbotapi.NewMessage(chatID, text)

	// Без настроенного mini-app кнопку не показываем
	if r.webAppURL != "" {
		msg.ReplyMarkup = webAppReplyKeyboard{
			Keyboard: [][]webAppKeyboardButton{{
				{
					Text:   r.loc.Get("start.button_topup", nil),
					WebApp: &webAppInfo{URL: r.webAppURL},
				},
			}},
			ResizeKeyboard: true,
		}
	}

	_, err := r.bot.Send(msg)
	return err
}

// Кнопка запуска мини-аппа. Библиотека про web_app не знает, поэтому
// reply_markup собирается из собственных структур с теми же json-полями.
type webAppReplyKeyboard struct {
	Keyboard       [][]webAppKeyboardButton `json:"keyboard"`
	ResizeKeyboard bool                     `json:"resize_keyboard"`
}

type webAppKeyboardButton struct {
	Text   string      `json:"text"`
	WebApp *webAppInfo `json:"web_app,omitempty"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

func (r *Router) sendHelp(chatID int64) error {
	if chatID == 0 {
		return nil
	}
	return r.send(chatID, r.loc.Get("help.text", map[string]interface{}{
		"commission": r.commission.String(),
		"rate":       r.rates.Get().String(),
	}))
}

// sendChatInfo печатает идентификаторы пользователя и чата.
// Полезно при настройке ADMIN_CHAT_ID и FORWARD_CHAT_ID.
func (r *Router) sendChatInfo(msg *tgbotapi.Message) error {
	username := msg.From.UserName
	if username == "" {
		username = r.loc.Get("admin.no_username", nil)
	}
	fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)

	return r.send(msg.Chat.ID, r.loc.Get("admin.info", map[string]interface{}{
		"user_id":   msg.From.ID,
		"username":  username,
		"full_name": fullName,
		"chat_id":   msg.Chat.ID,
		"chat_type": msg.Chat.Type,
	}))
}

func (r *Router) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.bot.Send(msg)
	return err
}

func extractUserID(update *infratg.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// SetupBotCommands устанавливает команды для меню бота
func (r *Router) SetupBotCommands() error {
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Оформить пополнение",
		},
		{
			Command:     "help",
			Description: "Как это работает",
		},
		{
			Command:     "cancel",
			Description: "Отменить текущую операцию",
		},
	}

	setCommandsConfig := tgbotapi.NewSetMyCommands(commands...)
	_, err := r.bot.Request(setCommandsConfig)
	return err
}
