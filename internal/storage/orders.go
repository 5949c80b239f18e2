package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/stories/orders"
)

const (
	ordersTable = "topup_orders"
	eventsTable = "topup_events"
)

var orderRowFields = fields(orderRow{})

type orderRow struct {
	ID              int64     `db:"id"`
	OrderUID        string    `db:"order_uid"`
	UserID          int64     `db:"user_id"`
	ChatID          int64     `db:"chat_id"`
	BaseAmount      string    `db:"base_amount"`
	TotalAmount     string    `db:"total_amount"`
	SecondaryAmount *string   `db:"secondary_amount"`
	Rate            string    `db:"rate"`
	Login           string    `db:"login"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
}

// RecordOrder пишет принятую заявку в журнал.
func (s *storageImpl) RecordOrder(ctx context.Context, order orders.Order) error {
	params := map[string]interface{}{
		"order_uid":    order.UID,
		"user_id":      order.RequesterUserID,
		"chat_id":      order.RequesterChatID,
		"base_amount":  order.BaseAmount.StringFixed(2),
		"total_amount": order.TotalWithCommission.StringFixed(2),
		"rate":         order.Rate.String(),
		"login":        order.Login,
		"status":       string(order.Status),
		"created_at":   s.now(),
	}
	if order.SecondaryAmount != nil {
		params["secondary_amount"] = lo.ToPtr(order.SecondaryAmount.StringFixed(2))
	}

	q, args, err := s.stmpBuilder().
		Insert(ordersTable).
		SetMap(params).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}
	return nil
}

// RecordEvent пишет переход статуса по нажатию кнопки оператора.
// Дубликаты нажатий не отсеиваются - каждое попадает в журнал.
func (s *storageImpl) RecordEvent(ctx context.Context, token orders.Token, status orders.Status) error {
	q, args, err := s.stmpBuilder().
		Insert(eventsTable).
		SetMap(map[string]interface{}{
			"user_id":      token.UserID,
			"chat_id":      token.ChatID,
			"total_amount": token.Amount.StringFixed(2),
			"action":       string(token.Action),
			"status":       string(status),
			"created_at":   s.now(),
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("db.ExecContext: %w", err)
	}
	return nil
}

// OrderStats - агрегаты журнала для команды /stats.
type OrderStats struct {
	TotalOrders    int64
	TotalBase      decimal.Decimal
	TotalWithFee   decimal.Decimal
	EventsByStatus map[orders.Status]int64
}

func (s *storageImpl) OrderStats(ctx context.Context) (*OrderStats, error) {
	stats := &OrderStats{
		EventsByStatus: make(map[orders.Status]int64),
	}

	q, args, err := s.stmpBuilder().
		Select("COUNT(*) AS cnt", "COALESCE(SUM(base_amount), 0) AS base_sum", "COALESCE(SUM(total_amount), 0) AS total_sum").
		From(ordersTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var totals struct {
		Cnt      int64   `db:"cnt"`
		BaseSum  float64 `db:"base_sum"`
		TotalSum float64 `db:"total_sum"`
	}
	if err := s.db.GetContext(ctx, &totals, q, args...); err != nil {
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}
	stats.TotalOrders = totals.Cnt
	stats.TotalBase = decimal.NewFromFloat(totals.BaseSum).Round(2)
	stats.TotalWithFee = decimal.NewFromFloat(totals.TotalSum).Round(2)

	q, args, err = s.stmpBuilder().
		Select("status", "COUNT(*) AS cnt").
		From(eventsTable).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db.QueryxContext: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row struct {
			Status string `db:"status"`
			Cnt    int64  `db:"cnt"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("rows.StructScan: %w", err)
		}
		stats.EventsByStatus[orders.Status(row.Status)] = row.Cnt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return stats, nil
}

// ListRecentOrders возвращает последние записи журнала (новые первыми).
func (s *storageImpl) ListRecentOrders(ctx context.Context, limit uint64) ([]*orders.Order, error) {
	q, args, err := s.stmpBuilder().
		Select(orderRowFields).
		From(ordersTable).
		OrderBy("id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext: %w", err)
	}

	result := make([]*orders.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, nil
}

func (r orderRow) toModel() (*orders.Order, error) {
	base, err := decimal.NewFromString(r.BaseAmount)
	if err != nil {
		return nil, fmt.Errorf("base_amount %q: %w", r.BaseAmount, err)
	}
	total, err := decimal.NewFromString(r.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("total_amount %q: %w", r.TotalAmount, err)
	}
	rate, err := decimal.NewFromString(r.Rate)
	if err != nil {
		return nil, fmt.Errorf("rate %q: %w", r.Rate, err)
	}

	order := &orders.Order{
		UID:                 r.OrderUID,
		RequesterUserID:     r.UserID,
		RequesterChatID:     r.ChatID,
		BaseAmount:          base,
		TotalWithCommission: total,
		Rate:                rate,
		Login:               r.Login,
		Status:              orders.Status(r.Status),
		CreatedAt:           r.CreatedAt,
	}

	if r.SecondaryAmount != nil {
		secondary, err := decimal.NewFromString(*r.SecondaryAmount)
		if err != nil {
			return nil, fmt.Errorf("secondary_amount %q: %w", *r.SecondaryAmount, err)
		}
		order.SecondaryAmount = &secondary
	}

	return order, nil
}
