package environment

import (
	"context"
	"log/slog"
	"time"

	"crypto-topup-bot/internal/config"
	"crypto-topup-bot/internal/infra/cryptopay"
	"crypto-topup-bot/internal/infra/sqlite3"
	"crypto-topup-bot/internal/infra/telegram"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	TelegramBot *telegram.Client
	CryptoPay   *cryptopay.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	telegramBot, err := provideTelegramBot(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Clients{
		SQLiteDB:    sqliteDB,
		TelegramBot: telegramBot,
		CryptoPay:   provideCryptoPay(cfg, logger),
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	// Parse max lifetime from string to duration, use default if empty
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m" // default value
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, err
	}

	opts := []sqlite3.Option{
		sqlite3.WithDSN(cfg.DB.Path),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}

func provideTelegramBot(cfg config.Config, logger *slog.Logger) (*telegram.Client, error) {
	// Return nil client if no token provided (will be handled gracefully)
	if cfg.Telegram.BotToken == "" {
		return nil, nil
	}

	client, err := telegram.NewClient(cfg.Telegram.BotToken, int(cfg.Telegram.Timeout.Seconds()), logger)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func provideCryptoPay(cfg config.Config, logger *slog.Logger) *cryptopay.Client {
	// Без токена бот работает, просто без крипто-конвертации
	if cfg.CryptoPay.APIToken == "" {
		return nil
	}

	return cryptopay.NewClient(cfg.CryptoPay.APIToken, cfg.CryptoPay.Testnet, cfg.CryptoPay.Timeout, logger)
}
