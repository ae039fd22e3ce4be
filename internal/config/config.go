package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"catering/internal/pricing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DBDriver    string // postgres / sqlite
	DatabaseURL string // 指定があればPOSTGRES_*より優先

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	JWTSecret string // JWT署名シークレット

	GoEnv    string     // dev/prod
	FEURL    string     // フロントURL（CORS）。空なら全許可しない
	LogLevel slog.Level // LOG_LEVEL=debug/info/warn/error

	Pricing            pricing.Config
	Currency           string // ISO 4217
	MaxQuantityPerLine int64

	OrderTxTimeout       time.Duration
	NotifyPublishTimeout time.Duration

	AMQPURL      string // 空ならRabbitMQへは送らない
	AMQPExchange string
}

func (c Config) IsDev() bool {
	return c.GoEnv == "dev"
}

// DSN は接続文字列。DATABASE_URLが無ければPOSTGRES_*から組み立てる。
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: os.Getenv("PORT"),

		DBDriver:    envString("DB_DRIVER", DriverPostgres),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envString("AMQP_EXCHANGE", "order_status_topic"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			if err := requirePostgres(&cfg); err != nil {
				return Config{}, err
			}
		}
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for sqlite")
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be %s or %s", DriverPostgres, DriverSQLite)
	}

	var err error
	if cfg.DBMaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxIdleConns, err = envInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return Config{}, err
	}
	if cfg.DBConnMaxLifetime, err = envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.OrderTxTimeout, err = envDuration("ORDER_TX_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.NotifyPublishTimeout, err = envDuration("NOTIFY_PUBLISH_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}

	maxQty, err := envInt("MAX_QUANTITY_PER_LINE", 1000)
	if err != nil {
		return Config{}, err
	}
	if maxQty <= 0 {
		return Config{}, fmt.Errorf("MAX_QUANTITY_PER_LINE must be positive")
	}
	cfg.MaxQuantityPerLine = int64(maxQty)

	if cfg.Pricing, err = loadPricing(); err != nil {
		return Config{}, err
	}

	//通貨コードはISO 4217として正しいものだけ
	unit, err := currency.ParseISO(envString("CURRENCY", "INR"))
	if err != nil {
		return Config{}, fmt.Errorf("CURRENCY must be an ISO 4217 code: %w", err)
	}
	cfg.Currency = unit.String()

	if err := cfg.LogLevel.UnmarshalText([]byte(envString("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func requirePostgres(cfg *Config) error {
	if cfg.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return err
	}
	cfg.PostgresPort = pgPort
	return nil
}

// 税率・送料（未指定ならデフォルト）
func loadPricing() (pricing.Config, error) {
	def := pricing.DefaultConfig()

	rate, err := envDecimal("TAX_RATE", def.TaxRate)
	if err != nil {
		return pricing.Config{}, err
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return pricing.Config{}, fmt.Errorf("TAX_RATE must be between 0 and 1")
	}
	threshold, err := envDecimal("FREE_DELIVERY_THRESHOLD", def.FreeDeliveryThreshold)
	if err != nil {
		return pricing.Config{}, err
	}
	charge, err := envDecimal("DELIVERY_CHARGE", def.DeliveryCharge)
	if err != nil {
		return pricing.Config{}, err
	}
	if threshold.IsNegative() || charge.IsNegative() {
		return pricing.Config{}, fmt.Errorf("FREE_DELIVERY_THRESHOLD and DELIVERY_CHARGE must not be negative")
	}

	return pricing.Config{TaxRate: rate, FreeDeliveryThreshold: threshold, DeliveryCharge: charge}, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 5s): %w", key, err)
	}
	return d, nil
}

func envDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return d, nil
}
