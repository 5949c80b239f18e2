package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/stories/amounts"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topup_orders_created_total",
		Help: "Number of top-up orders accepted from the mini-app",
	})
	ordersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topup_orders_rejected_total",
		Help: "Number of mini-app submissions rejected by validation",
	})
	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topup_order_transitions_total",
		Help: "Operator dispositions applied, by action",
	}, []string{"action"})
)

// Config - параметры варианта, влияющие на расчет и валидацию.
type Config struct {
	CommissionPercent decimal.Decimal
	MinAmount         decimal.Decimal
	RequireLogin      bool
	ShowCrypto        bool
}

type Service struct {
	cfg     Config
	variant Variant
	rates   rateSource
	journal journal
	logger  *slog.Logger
}

func NewService(cfg Config, variant Variant, rates rateSource, journal journal, logger *slog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		variant: variant,
		rates:   rates,
		journal: journal,
		logger:  logger,
	}
}

func (s *Service) Variant() Variant {
	return s.variant
}

func (s *Service) CommissionPercent() decimal.Decimal {
	return s.cfg.CommissionPercent
}

// CreateOrder валидирует сумму из mini-app и пересчитывает итог на сервере.
// Суммам из клиента не доверяем - считаем все заново от BaseAmount.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	base, err := amounts.Parse(req.RawAmount, s.cfg.MinAmount)
	if err != nil {
		ordersRejected.Inc()
		return nil, err
	}

	if s.cfg.RequireLogin && req.Login == "" {
		ordersRejected.Inc()
		return nil, fmt.Errorf("%w: логин обязателен", amounts.ErrInvalidAmount)
	}

	rate := s.rates.Get()
	total := amounts.ApplyCommission(base, s.cfg.CommissionPercent)

	order := &Order{
		UID:                 uuid.New().String(),
		RequesterUserID:     req.RequesterUserID,
		RequesterChatID:     req.RequesterChatID,
		BaseAmount:          base,
		TotalWithCommission: total,
		Rate:                rate,
		Login:               req.Login,
		Status:              StatusNew,
		CreatedAt:           time.Now().UTC(),
	}

	if s.cfg.ShowCrypto {
		secondary, err := amounts.ConvertAtRate(total, rate)
		if err != nil {
			return nil, fmt.Errorf("конвертация по курсу %s: %w", rate, err)
		}
		order.SecondaryAmount = &secondary
	}

	if s.journal != nil {
		if err := s.journal.RecordOrder(ctx, *order); err != nil {
			// Журнал - побочный канал, заявку из-за него не теряем
			s.logger.Error("Не удалось записать заявку в журнал",
				slog.String("order_uid", order.UID),
				slog.Any("error", err))
		}
	}

	ordersCreated.Inc()
	s.logger.Info("Создана заявка на пополнение",
		slog.String("order_uid", order.UID),
		slog.Int64("user_id", order.RequesterUserID),
		slog.String("base", order.BaseAmount.StringFixed(2)),
		slog.String("total", order.TotalWithCommission.StringFixed(2)))

	return order, nil
}

// TokenFor собирает callback payload для кнопки действия по заявке.
func (s *Service) TokenFor(action Action, order *Order) Token {
	return Token{
		Action: action,
		UserID: order.RequesterUserID,
		ChatID: order.RequesterChatID,
		Amount: order.TotalWithCommission,
		Login:  order.Login,
	}
}

// Disposition применяет действие оператора из раскодированного токена и
// возвращает новый статус. Повторное нажатие не дедуплицируется: переход
// идемпотентен по содержимому уведомления, но отправится еще раз.
func (s *Service) Disposition(ctx context.Context, token *Token) (Status, error) {
	next, ok := StatusAfter(token.Action)
	if !ok || !s.variant.Allows(token.Action) {
		return "", fmt.Errorf("%w: действие %q недоступно в варианте %q",
			ErrMalformedToken, token.Action, s.variant.Name)
	}

	if s.journal != nil {
		if err := s.journal.RecordEvent(ctx, *token, next); err != nil {
			s.logger.Error("Не удалось записать переход в журнал",
				slog.String("action", string(token.Action)),
				slog.Any("error", err))
		}
	}

	orderTransitions.WithLabelValues(string(token.Action)).Inc()
	s.logger.Info("Заявка переведена в новый статус",
		slog.String("action", string(token.Action)),
		slog.String("status", string(next)),
		slog.Int64("user_id", token.UserID))

	return next, nil
}

// FollowUpActions - кнопки следующего этапа после перехода.
func (s *Service) FollowUpActions(status Status) []Action {
	return s.variant.ActionsFor(status)
}
