package amounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount - сумма не распарсилась или меньше допустимого минимума
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidRate - курс должен быть строго больше нуля
	ErrInvalidRate = errors.New("invalid rate")
)

var hundred = decimal.NewFromInt(100)

// Parse разбирает введенную пользователем сумму. Разделителем может быть
// и запятая, и точка. Если min нулевой, действует правило "> 0", иначе ">= min".
// Результат округляется до 2 знаков (половина вверх).
func Parse(raw string, min decimal.Decimal) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: сумма должна быть больше 0", ErrInvalidAmount)
	}

	amount = amount.Round(2)

	if min.IsPositive() && amount.LessThan(min) {
		return decimal.Zero, fmt.Errorf("%w: минимальная сумма %s", ErrInvalidAmount, min.StringFixed(2))
	}

	return amount, nil
}

// ApplyCommission считает итог к оплате: base × (1 + percent/100),
// округление до 2 знаков половиной вверх.
func ApplyCommission(base, percent decimal.Decimal) decimal.Decimal {
	multiplier := decimal.New(1, 0).Add(percent.Div(hundred))
	return base.Mul(multiplier).Round(2)
}

// ConvertAtRate переводит сумму во вторую валюту по курсу.
func ConvertAtRate(amount, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidRate, rate)
	}
	return amount.Div(rate).Round(2), nil
}

// assetPrecision возвращает число знаков для отображения криптосуммы.
// Канонические суммы заявки это не затрагивает - они всегда с 2 знаками.
func assetPrecision(asset string) int32 {
	switch asset {
	case "BTC", "ETH":
		return 6
	case "USDT", "USDC":
		return 2
	default:
		return 4
	}
}

// RoundForAsset округляет сумму до точности отображения актива.
func RoundForAsset(amount decimal.Decimal, asset string) decimal.Decimal {
	return amount.Round(assetPrecision(asset))
}

// FormatForDisplay рендерит "<amount> <symbol>" с точностью актива.
func FormatForDisplay(amount decimal.Decimal, asset string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(assetPrecision(asset)), asset)
}
