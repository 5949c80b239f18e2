package environment

import (
	"context"
	"log/slog"

	"crypto-topup-bot/internal/api"
	"crypto-topup-bot/internal/config"
	"crypto-topup-bot/internal/localization"
	"crypto-topup-bot/internal/storage"
	"crypto-topup-bot/internal/stories/orders"
	"crypto-topup-bot/internal/stories/rates"
	"crypto-topup-bot/internal/telegram"
	"crypto-topup-bot/internal/telegram/cmds"
	"crypto-topup-bot/internal/telegram/flows/disposition"
	"crypto-topup-bot/internal/telegram/flows/setrate"
	"crypto-topup-bot/internal/telegram/flows/topup"
	"crypto-topup-bot/internal/telegram/states"
	"crypto-topup-bot/internal/worker"

	"github.com/pkg/errors"
)

type Services struct {
	TelegramRouter *telegram.Router
	WorkerService  *worker.Service
	APIServer      *api.Server
	RatesService   *rates.Service
	RateStore      *rates.Store
	OrdersService  *orders.Service
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	// Создаем реальный storage и накатываем схему
	storageImpl := storage.New(clients.SQLiteDB.DB)
	if err := storageImpl.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to migrate storage")
	}

	// Хранилище курса RUB -> USDT для ручного варианта
	rateStore, err := rates.NewStore(cfg.Topup.DefaultRate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rate store")
	}
	s.RateStore = rateStore

	// Сервис курсов поверх Crypto Pay. Без клиента работает в выключенном режиме
	var ratesService *rates.Service
	if clients.CryptoPay != nil {
		ratesService = rates.NewService(clients.CryptoPay, cfg.Topup.RatesCacheTTL, logger)
	} else {
		ratesService = rates.NewService(nil, cfg.Topup.RatesCacheTTL, logger)
	}
	s.RatesService = ratesService

	// Создаем Orders service с нужным вариантом воронки
	variant, err := orders.VariantByName(cfg.Topup.Variant)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve topup variant")
	}

	ordersService := orders.NewService(orders.Config{
		CommissionPercent: cfg.Topup.CommissionPercent,
		MinAmount:         cfg.Topup.MinAmount,
		RequireLogin:      cfg.Topup.RequireLogin,
		ShowCrypto:        cfg.Topup.ShowCrypto,
	}, variant, rateStore, storageImpl, logger)
	s.OrdersService = ordersService

	// Локализация пользовательских текстов
	loc, err := localization.NewService()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create localization service")
	}

	// Telegram-часть собираем только при наличии клиента, rates-api живет без нее
	if clients.TelegramBot != nil {
		// Создаем StateManager
		stateManager := states.NewManager()

		// Создаем AdminChecker
		adminChecker := telegram.NewAdminChecker(&cfg.Telegram)

		// Создаем topupHandler - наш клиент уже реализует botApi интерфейс
		topupHandler := topup.NewHandler(
			clients.TelegramBot,
			ordersService,
			loc,
			cfg.Telegram.AdminChatID,
			cfg.Telegram.ForwardChatID,
			logger,
		)

		// Создаем dispositionHandler
		dispositionHandler := disposition.NewHandler(
			clients.TelegramBot,
			ordersService,
			loc,
			logger,
		)

		// Создаем setRateHandler
		setRateHandler := setrate.NewHandler(
			clients.TelegramBot,
			rateStore,
			stateManager,
			loc,
			cfg.Topup.CommissionPercent,
			logger,
		)

		// Создаем statsCommand
		statsCommand := cmds.NewStatsCommand(
			clients.TelegramBot,
			storageImpl,
			loc,
		)

		// Создаем роутер
		s.TelegramRouter = telegram.NewRouter(
			clients.TelegramBot,
			stateManager,
			adminChecker,
			loc,
			rateStore,
			cfg.Topup.CommissionPercent,
			cfg.Telegram.WebAppURL,
			topupHandler,
			dispositionHandler,
			setRateHandler,
			statsCommand,
		)
	}

	// HTTP API курсов и вебхук Crypto Pay
	if clients.CryptoPay != nil {
		s.APIServer = api.NewServer(ratesService, clients.CryptoPay, storageImpl, cfg.Telegram.BotToken, logger)
	} else {
		s.APIServer = api.NewServer(ratesService, nil, storageImpl, cfg.Telegram.BotToken, logger)
	}

	// Фоновое обновление курсов по расписанию
	s.WorkerService = worker.NewService(ratesService, logger)

	return &s, nil
}
