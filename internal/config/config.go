package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	BackendSheet    = "sheet"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	AuthSecret            string
	AccessTokenTTLMinutes int
	SessionTTLMinutes     int
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	LoginRate             string

	LedgerBackend        string
	LedgerWorkbook       string
	DatabaseURL          string
	LedgerTimeoutSeconds int

	ShopTimezone       string
	LoyaltyWeekdayRate decimal.Decimal
	LoyaltyWeekendRate decimal.Decimal
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] WARN: could not read .env: %v", err)
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL := positiveInt("ACCESS_TOKEN_TTL_MINUTES", 480)

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		SessionTTLMinutes:     positiveInt("SESSION_TTL_MINUTES", tokenTTL),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		LoginRate:             getEnv("LOGIN_RATE", "5-M"),

		LedgerBackend:        strings.ToLower(strings.TrimSpace(getEnv("LEDGER_BACKEND", BackendSheet))),
		LedgerWorkbook:       getEnv("LEDGER_WORKBOOK", "pawledger.xlsx"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		LedgerTimeoutSeconds: positiveInt("LEDGER_TIMEOUT_SECONDS", 10),

		ShopTimezone:       getEnv("SHOP_TIMEZONE", "UTC"),
		LoyaltyWeekdayRate: rate("LOYALTY_WEEKDAY_RATE", "0.02"),
		LoyaltyWeekendRate: rate("LOYALTY_WEEKEND_RATE", "0.05"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) LedgerTimeout() time.Duration {
	return time.Duration(c.LedgerTimeoutSeconds) * time.Second
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.ShopTimezone)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func rate(key string, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil || d.IsNegative() {
		log.Printf("[config] WARN: invalid %s, using %s", key, fallback)
		return decimal.RequireFromString(fallback)
	}
	return d
}
