package api

// rateInfo - курс одной валюты в ответе /api/rates
type rateInfo struct {
	Rate   string `json:"rate"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

type ratesResponse struct {
	Success bool                `json:"success"`
	Rates   map[string]rateInfo `json:"rates,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type convertRequest struct {
	Amount interface{} `json:"amount"`
}

// conversionInfo - результат конвертации в одну валюту
type conversionInfo struct {
	Amount    string `json:"amount"`
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Formatted string `json:"formatted"`
}

type convertResponse struct {
	Success     bool                      `json:"success"`
	RubAmount   string                    `json:"rub_amount,omitempty"`
	Conversions map[string]conversionInfo `json:"conversions,omitempty"`
	Error       string                    `json:"error,omitempty"`
}

type healthResponse struct {
	Status           string `json:"status"`
	CryptoPayEnabled bool   `json:"crypto_pay_enabled"`
}
