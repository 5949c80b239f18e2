package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/infra/cryptopay"
)

const paidInvoicesTable = "paid_invoices"

var paidInvoiceRowFields = fields(paidInvoiceRow{})

type paidInvoiceRow struct {
	ID        int64      `db:"id"`
	InvoiceID int64      `db:"invoice_id"`
	Asset     string     `db:"asset"`
	Amount    string     `db:"amount"`
	Payload   string     `db:"payload"`
	PaidAt    *time.Time `db:"paid_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// RecordPaidInvoice фиксирует оплаченный инвойс из вебхука Crypto Pay.
// Повторная доставка того же инвойса - не ошибка.
func (s *storageImpl) RecordPaidInvoice(ctx context.Context, invoice cryptopay.Invoice) error {
	q, args, err := s.stmpBuilder().
		Insert(paidInvoicesTable).
		Options("OR IGNORE").
		SetMap(map[string]interface{}{
			"invoice_id": invoice.InvoiceID,
			"asset":      invoice.Asset,
			"amount":     invoice.Amount.String(),
			"payload":    invoice.Payload,
			"paid_at":    invoice.PaidAt,
			"created_at": s.now(),
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

// PaidInvoice - учтенный оплаченный инвойс.
type PaidInvoice struct {
	InvoiceID int64
	Asset     string
	Amount    decimal.Decimal
	Payload   string
	PaidAt    *time.Time
}

func (r paidInvoiceRow) toModel() (*PaidInvoice, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	return &PaidInvoice{
		InvoiceID: r.InvoiceID,
		Asset:     r.Asset,
		Amount:    amount,
		Payload:   r.Payload,
		PaidAt:    r.PaidAt,
	}, nil
}

// GetPaidInvoice возвращает запись по id инвойса провайдера.
func (s *storageImpl) GetPaidInvoice(ctx context.Context, invoiceID int64) (*PaidInvoice, error) {
	q, args, err := s.stmpBuilder().
		Select(paidInvoiceRowFields).
		From(paidInvoicesTable).
		Where(sq.Eq{"invoice_id": invoiceID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	var row paidInvoiceRow
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		return nil, fmt.Errorf("db.GetContext: %w", err)
	}
	return row.toModel()
}
