package storage

import (
	"context"
	"fmt"
	"reflect"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type storageImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) *storageImpl {
	return &storageImpl{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *storageImpl) stmpBuilder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// Migrate создает таблицы журнала. Журнал append-only: машина состояний
// заявок из него не читает, он нужен для /stats и учета вебхуков.
func (s *storageImpl) Migrate(ctx context.Context) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS topup_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_uid TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			base_amount TEXT NOT NULL,
			total_amount TEXT NOT NULL,
			secondary_amount TEXT,
			rate TEXT NOT NULL,
			login TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS topup_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			total_amount TEXT NOT NULL,
			action TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paid_invoices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			invoice_id INTEGER NOT NULL UNIQUE,
			asset TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '',
			paid_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, schema := range schemas {
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// fields возвращает список всех полей структуры, которые есть в БД.
func fields(data any) string {
	var s string
	r := reflect.TypeOf(data)
	for i := 0; i < r.NumField(); i++ {
		tag := r.Field(i).Tag.Get("db")
		if tag != "" {
			s += tag + ","
		}
	}
	return s[:len(s)-1]
}
