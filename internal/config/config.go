package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	CryptoPay        CryptoPayConfig         `env:",prefix=CRYPTO_PAY_"`
	API              APIHTTPConfig           `env:",prefix=API_"`
	Topup            TopupConfig             `env:",prefix=TOPUP_"`
}

type TelegramConfig struct {
	BotToken      string        `env:"BOT_TOKEN"`
	Timeout       time.Duration `env:"TIMEOUT,default=30s"`
	AdminChatID   int64         `env:"ADMIN_CHAT_ID"`
	ForwardChatID int64         `env:"FORWARD_CHAT_ID"`
	AdminIDs      []int64       `env:"ADMIN_IDS"`
	WebAppURL     string        `env:"WEBAPP_URL"`
}

type CryptoPayConfig struct {
	APIToken string        `env:"API_TOKEN"`
	Testnet  bool          `env:"TESTNET,default=false"`
	Timeout  time.Duration `env:"TIMEOUT,default=30s"`
}

// TopupConfig описывает вариант развертывания бота: какие кнопки видит
// оператор, минимальная сумма и нужен ли внешний логин (например, Steam).
type TopupConfig struct {
	Variant           string          `env:"VARIANT,default=simple"`
	CommissionPercent decimal.Decimal `env:"COMMISSION_PERCENT,default=15"`
	MinAmount         decimal.Decimal `env:"MIN_AMOUNT,default=0"`
	RequireLogin      bool            `env:"REQUIRE_LOGIN,default=false"`
	ShowCrypto        bool            `env:"SHOW_CRYPTO,default=true"`
	DefaultRate       decimal.Decimal `env:"USDT_RATE,default=95.0"`
	RatesCacheTTL     time.Duration   `env:"RATES_CACHE_TTL,default=5m"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type APIHTTPConfig struct {
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         uint16        `env:"PORT,default=8001"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a APIHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string `env:"PATH,default=./data/topup.db"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string `env:"MAX_LIFETIME,default=5m"`
}
