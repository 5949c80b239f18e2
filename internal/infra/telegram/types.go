package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Update - библиотечный update плюс поле web_app_data из Bot API 6.0,
// которого в библиотеке нет. Разбирается из того же JSON.
type Update struct {
	tgbotapi.Update
	WebAppData *WebAppData
}

// WebAppData - данные, отправленные мини-аппом через Telegram.WebApp.sendData
type WebAppData struct {
	Data       string `json:"data"`
	ButtonText string `json:"button_text"`
}

func parseUpdates(raw json.RawMessage) ([]Update, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal updates: %w", err)
	}

	updates := make([]Update, 0, len(items))
	for _, item := range items {
		var base tgbotapi.Update
		if err := json.Unmarshal(item, &base); err != nil {
			return nil, fmt.Errorf("unmarshal update: %w", err)
		}

		var shadow struct {
			Message *struct {
				WebAppData *WebAppData `json:"web_app_data"`
			} `json:"message"`
		}
		if err := json.Unmarshal(item, &shadow); err != nil {
			return nil, fmt.Errorf("unmarshal web_app_data: %w", err)
		}

		update := Update{Update: base}
		if shadow.Message != nil {
			update.WebAppData = shadow.Message.WebAppData
		}
		updates = append(updates, update)
	}

	return updates, nil
}
