package telegram

import (
	"slices"

	"crypto-topup-bot/internal/config"
)

// AdminChecker проверяет является ли пользователь оператором бота
type AdminChecker struct {
	adminIDs    []int64
	adminChatID int64
}

func NewAdminChecker(cfg *config.TelegramConfig) *AdminChecker {
	return &AdminChecker{
		adminIDs:    cfg.AdminIDs,
		adminChatID: cfg.AdminChatID,
	}
}

// IsAdmin проверяет является ли пользователь с данным Telegram ID оператором.
// Личный чат оператора совпадает с его user id, поэтому AdminChatID
// тоже учитывается, как это делал исходный бот.
func (a *AdminChecker) IsAdmin(telegramID int64) bool {
	if telegramID == a.adminChatID {
		return true
	}
	return slices.Contains(a.adminIDs, telegramID)
}
