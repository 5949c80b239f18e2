package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const retryDelay = 3 * time.Second

type Client struct {
	api         *tgbotapi.BotAPI
	logger      *slog.Logger
	limiter     *rate.Limiter
	pollTimeout int
	updates     chan Update
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewClient(token string, pollTimeout int, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("создание telegram бота: %w", err)
	}

	if pollTimeout <= 0 {
		pollTimeout = 60
	}

	// Rate limiting - 30 сообщений в секунду
	limiter := rate.NewLimiter(30, 1)

	return &Client{
		api:         bot,
		logger:      logger,
		limiter:     limiter,
		pollTimeout: pollTimeout,
	}, nil
}

// Start начинает получение обновлений (long polling).
// getUpdates вызывается напрямую, чтобы вытащить web_app_data.
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.updates = make(chan Update, 100)

	go c.poll()

	c.logger.Info("Telegram бот запущен", slog.String("username", c.api.Self.UserName))
	return nil
}

func (c *Client) poll() {
	defer close(c.updates)

	offset := 0
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		params := tgbotapi.Params{}
		params.AddNonZero("offset", offset)
		params.AddNonZero("timeout", c.pollTimeout)

		resp, err := c.api.MakeRequest("getUpdates", params)
		if err != nil {
			c.logger.Error("Ошибка получения обновлений", slog.Any("error", err))
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		updates, err := parseUpdates(resp.Result)
		if err != nil {
			c.logger.Error("Ошибка разбора обновлений", slog.Any("error", err))
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			select {
			case c.updates <- update:
			case <-c.ctx.Done():
				return
			}
		}
	}
}

// Stop останавливает получение обновлений
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.logger.Info("Telegram бот остановлен")
}

// GetUpdates возвращает канал с обновлениями
func (c *Client) GetUpdates() <-chan Update {
	return c.updates
}

// SendMessage отправляет текстовое сообщение с rate limiting
func (c *Client) SendMessage(chatID int64, text string) error {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := c.api.Send(msg); err != nil {
		c.logger.Error("ошибка отправки сообщения",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
		return fmt.Errorf("отправка сообщения: %w", err)
	}

	return nil
}

// Send отправляет любое сообщение с rate limiting (для интерфейса botApi)
func (c *Client) Send(chattable tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("rate limiting: %w", err)
	}

	message, err := c.api.Send(chattable)
	if err != nil {
		c.logger.Error("ошибка отправки", slog.Any("error", err))
		return tgbotapi.Message{}, fmt.Errorf("отправка: %w", err)
	}

	return message, nil
}

// Request отправляет запрос к API (для интерфейса botApi)
func (c *Client) Request(chattable tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return nil, fmt.Errorf("rate limiting: %w", err)
	}

	resp, err := c.api.Request(chattable)
	if err != nil {
		c.logger.Error("ошибка запроса к API", slog.Any("error", err))
		return nil, fmt.Errorf("запрос к API: %w", err)
	}

	return resp, nil
}
