package cmds

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crypto-topup-bot/internal/storage"
	"crypto-topup-bot/internal/stories/orders"
)

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type statsStorage interface {
	OrderStats(ctx context.Context) (*storage.OrderStats, error)
	ListRecentOrders(ctx context.Context, limit uint64) ([]*orders.Order, error)
}

type localizer interface {
	Get(key string, params map[string]interface{}) string
}

// StatsCommand показывает агрегаты журнала заявок
type StatsCommand struct {
	bot     botApi
	storage statsStorage
	loc     localizer
}

func NewStatsCommand(bot botApi, storage statsStorage, loc localizer) *StatsCommand {
	return &StatsCommand{
		bot:     bot,
		storage: storage,
		loc:     loc,
	}
}

func (c *StatsCommand) Execute(ctx context.Context, chatID int64) error {
	stats, err := c.storage.OrderStats(ctx)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, c.loc.Get("common.error", nil))
		_, _ = c.bot.Send(msg)
		return fmt.Errorf("order stats: %w", err)
	}

	if stats.TotalOrders == 0 {
		msg := tgbotapi.NewMessage(chatID, c.loc.Get("stats.empty", nil))
		_, err = c.bot.Send(msg)
		return err
	}

	recent, err := c.storage.ListRecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, c.loc.Get("common.error", nil))
		_, _ = c.bot.Send(msg)
		return fmt.Errorf("list recent orders: %w", err)
	}

	text := c.loc.Get("stats.summary", map[string]interface{}{
		"total":     stats.TotalOrders,
		"base":      stats.TotalBase.StringFixed(2),
		"with_fee":  stats.TotalWithFee.StringFixed(2),
		"by_status": formatEvents(stats.EventsByStatus),
		"recent":    formatRecent(recent),
	})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = c.bot.Send(msg)
	return err
}

const recentOrdersLimit = 5

// formatRecent выводит последние заявки журнала, новые первыми
func formatRecent(recent []*orders.Order) string {
	if len(recent) == 0 {
		return "—"
	}

	var lines []string
	for _, order := range recent {
		lines = append(lines, fmt.Sprintf("• %s | %s → %s РУБ",
			order.CreatedAt.Format("02.01 15:04"),
			order.BaseAmount.StringFixed(2),
			order.TotalWithCommission.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

// formatEvents выводит счетчики событий в фиксированном порядке статусов
func formatEvents(events map[orders.Status]int64) string {
	order := []orders.Status{
		orders.StatusAccepted,
		orders.StatusProcessing,
		orders.StatusPaid,
		orders.StatusCompleted,
		orders.StatusRejected,
	}

	var lines []string
	for _, status := range order {
		if count, ok := events[status]; ok {
			lines = append(lines, fmt.Sprintf("• %s: %d", status, count))
		}
	}
	if len(lines) == 0 {
		return "—"
	}
	return strings.Join(lines, "\n")
}
