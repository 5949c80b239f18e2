package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

type (
	// journal - опциональный append-only лог для /stats. Машина состояний
	// из него ничего не читает.
	journal interface {
		RecordOrder(ctx context.Context, order Order) error
		RecordEvent(ctx context.Context, token Token, status Status) error
	}

	rateSource interface {
		Get() decimal.Decimal
	}
)
