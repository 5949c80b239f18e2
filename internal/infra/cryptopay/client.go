package cryptopay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	mainnetBaseURL = "https://pay.crypt.bot/api"
	testnetBaseURL = "https://testnet-pay.crypt.bot/api"

	tokenHeader = "Crypto-Pay-API-Token"
	// SignatureHeader - подпись вебхука, HMAC-SHA256 от сырого тела
	SignatureHeader = "Crypto-Pay-Api-Signature"
)

// Client - обертка над Crypto Pay API (pay.crypt.bot).
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(apiToken string, testnet bool, timeout time.Duration, logger *slog.Logger) *Client {
	baseURL := mainnetBaseURL
	if testnet {
		baseURL = testnetBaseURL
	}

	return &Client{
		baseURL:    baseURL,
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	url := c.baseURL + "/" + endpoint

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("маршалинг запроса %s: %w", endpoint, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", endpoint, err)
	}
	req.Header.Set(tokenHeader, c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", endpoint, err)
	}

	if !envelope.OK {
		if envelope.Error != nil {
			c.logger.Error("Crypto Pay API вернул ошибку",
				slog.String("endpoint", endpoint),
				slog.Int("code", envelope.Error.Code),
				slog.String("name", envelope.Error.Name))
			return fmt.Errorf("crypto pay api: %d %s", envelope.Error.Code, envelope.Error.Name)
		}
		return fmt.Errorf("crypto pay api: запрос %s отклонен", endpoint)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("декодирование результата %s: %w", endpoint, err)
		}
	}
	return nil
}

// GetMe возвращает информацию о приложении (проверка токена).
func (c *Client) GetMe(ctx context.Context) (*AppInfo, error) {
	var info AppInfo
	if err := c.do(ctx, http.MethodGet, "getMe", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetExchangeRates возвращает все котировки провайдера.
func (c *Client) GetExchangeRates(ctx context.Context) ([]ExchangeRate, error) {
	var result []ExchangeRate
	if err := c.do(ctx, http.MethodGet, "getExchangeRates", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCurrencies возвращает список поддерживаемых валют.
func (c *Client) GetCurrencies(ctx context.Context) ([]Currency, error) {
	var result []Currency
	if err := c.do(ctx, http.MethodGet, "getCurrencies", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateInvoice создает инвойс на оплату.
func (c *Client) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	var invoice Invoice
	if err := c.do(ctx, http.MethodPost, "createInvoice", req, &invoice); err != nil {
		return nil, err
	}

	c.logger.Info("Создан инвойс",
		slog.Int64("invoice_id", invoice.InvoiceID),
		slog.String("status", invoice.Status))
	return &invoice, nil
}

// GetInvoices возвращает инвойсы по списку id (или все, если список пуст).
func (c *Client) GetInvoices(ctx context.Context, invoiceIDs []int64) ([]Invoice, error) {
	endpoint := "getInvoices"
	if len(invoiceIDs) > 0 {
		ids := make([]string, 0, len(invoiceIDs))
		for _, id := range invoiceIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		endpoint += "?invoice_ids=" + strings.Join(ids, ",")
	}

	var result struct {
		Items []Invoice `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// VerifyWebhookSignature проверяет подпись вебхука: HMAC-SHA256 от сырого
// тела запроса, ключ - SHA-256 от API-токена.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	secret := sha256.Sum256([]byte(c.apiToken))

	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
