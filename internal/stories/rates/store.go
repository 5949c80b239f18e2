package rates

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/stories/amounts"
)

// Store - ячейка с курсом USDT к рублю, который администратор меняет
// командой /setrate. Один писатель, много читателей; каждая заявка
// перечитывает курс на момент расчета.
type Store struct {
	mu   sync.RWMutex
	rate decimal.Decimal
}

func NewStore(initial decimal.Decimal) (*Store, error) {
	if initial.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: стартовый курс %s", amounts.ErrInvalidRate, initial)
	}
	return &Store{rate: initial}, nil
}

func (s *Store) Get() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rate
}

// Set обновляет курс. При невалидном значении прежний курс остается в силе.
func (s *Store) Set(rate decimal.Decimal) (old decimal.Decimal, err error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return s.Get(), fmt.Errorf("%w: %s", amounts.ErrInvalidRate, rate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old = s.rate
	s.rate = rate
	return old, nil
}
