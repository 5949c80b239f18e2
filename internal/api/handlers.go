package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"crypto-topup-bot/internal/infra/cryptopay"
	"crypto-topup-bot/internal/stories/amounts"
	"crypto-topup-bot/internal/stories/rates"
	"crypto-topup-bot/internal/telegram"
)

// Server - HTTP API для мини-аппа: курсы, конвертация и вебхук провайдера.
type Server struct {
	rates    ratesService
	verifier webhookVerifier
	journal  invoiceJournal
	botToken string
	logger   *slog.Logger
}

// NewServer собирает API. botToken нужен для проверки X-Telegram-Init-Data;
// пустой токен отключает проверку.
func NewServer(
	ratesService ratesService,
	verifier webhookVerifier,
	journal invoiceJournal,
	botToken string,
	logger *slog.Logger,
) *Server {
	return &Server{
		rates:    ratesService,
		verifier: verifier,
		journal:  journal,
		botToken: botToken,
		logger:   logger,
	}
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if !s.rates.Enabled() {
		writeJSON(w, http.StatusInternalServerError, ratesResponse{
			Success: false,
			Error:   "Crypto Pay API не инициализирован",
		})
		return
	}

	quotes, err := s.rates.RatesFromRUB(r.Context())
	if err != nil {
		s.logger.Error("Ошибка получения курсов", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, ratesResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	formatted := make(map[string]rateInfo, len(quotes))
	for asset, quote := range quotes {
		formatted[asset] = rateInfo{
			Rate:   quote.String(),
			Symbol: asset,
			Name:   rates.CurrencyName(asset),
		}
	}

	writeJSON(w, http.StatusOK, ratesResponse{Success: true, Rates: formatted})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if s.botToken != "" {
		initData := r.Header.Get("X-Telegram-Init-Data")
		if initData != "" && !telegram.VerifyInitData(initData, s.botToken) {
			writeJSON(w, http.StatusUnauthorized, convertResponse{
				Success: false,
				Error:   "недействительные данные mini-app",
			})
			return
		}
	}

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, convertResponse{
			Success: false,
			Error:   "некорректный JSON",
		})
		return
	}

	rubAmount, err := decimal.NewFromString(fmt.Sprint(req.Amount))
	if err != nil || !rubAmount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, convertResponse{
			Success: false,
			Error:   "Сумма должна быть больше 0",
		})
		return
	}

	if !s.rates.Enabled() {
		writeJSON(w, http.StatusInternalServerError, convertResponse{
			Success: false,
			Error:   "Crypto Pay API не инициализирован",
		})
		return
	}

	conversions, err := s.rates.ConvertRUBToCrypto(r.Context(), rubAmount)
	if err != nil {
		s.logger.Error("Ошибка конвертации", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, convertResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	formatted := make(map[string]conversionInfo, len(conversions))
	for asset, amount := range conversions {
		formatted[asset] = conversionInfo{
			Amount:    amount.String(),
			Symbol:    asset,
			Name:      rates.CurrencyName(asset),
			Formatted: amounts.FormatForDisplay(amount, asset),
		}
	}

	writeJSON(w, http.StatusOK, convertResponse{
		Success:     true,
		RubAmount:   rubAmount.String(),
		Conversions: formatted,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "ok",
		CryptoPayEnabled: s.rates.Enabled(),
	})
}

// handleCryptoPayWebhook принимает invoice_paid от Crypto Pay.
// Тело с неверной подписью отвергается до любых побочных эффектов.
func (s *Server) handleCryptoPayWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "не удалось прочитать тело", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(cryptopay.SignatureHeader)
	if s.verifier == nil || !s.verifier.VerifyWebhookSignature(body, signature) {
		s.logger.Warn("Вебхук с неверной подписью отклонен")
		http.Error(w, "неверная подпись", http.StatusBadRequest)
		return
	}

	var update cryptopay.WebhookUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(w, "некорректный JSON", http.StatusBadRequest)
		return
	}

	if update.UpdateType != cryptopay.UpdateTypeInvoicePaid {
		// Неизвестные типы подтверждаем, чтобы провайдер не ретраил
		w.WriteHeader(http.StatusOK)
		return
	}

	if s.journal != nil {
		// Crypto Pay ретраит недоставленные вебхуки, повтор просто подтверждаем
		if known, err := s.journal.GetPaidInvoice(r.Context(), update.Payload.InvoiceID); err == nil && known != nil {
			s.logger.Info("Повторная доставка вебхука",
				slog.Int64("invoice_id", update.Payload.InvoiceID))
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := s.journal.RecordPaidInvoice(r.Context(), update.Payload); err != nil {
			s.logger.Error("Не удалось записать оплаченный счет",
				slog.Int64("invoice_id", update.Payload.InvoiceID),
				slog.Any("error", err))
			http.Error(w, "ошибка записи", http.StatusInternalServerError)
			return
		}
	}

	s.logger.Info("Счет оплачен",
		slog.Int64("invoice_id", update.Payload.InvoiceID),
		slog.String("asset", update.Payload.Asset),
		slog.String("amount", update.Payload.Amount.String()))

	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
