package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/fx"
	"finanzas/internal/log"
	"finanzas/internal/scheduler"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Database
	DataBackend      string
	SQLiteDBPath     string
	LegacyImportPath string

	// Locale
	LogLevel        string
	Timezone        string
	LocalCurrency   string
	ForeignCurrency string

	// Exchange rate
	FXProvider    string
	FXURL         string
	FXStaticBuy   float64
	FXStaticSell  float64
	FXXMLBuyPath  string
	FXXMLSellPath string
	FXCacheTTL    time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	AccrualSchedule        string
	SnapshotExportSchedule string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSnapshotSheetName  string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// KPI snapshot cache
	KPICacheSize int
	KPICacheTTL  time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("HTTP_RATE_LIMIT", 60),

		DataBackend:      getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/finanzas.db"),
		LegacyImportPath: getEnv("LEGACY_IMPORT_PATH", ""),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Timezone:        getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),
		LocalCurrency:   getEnv("LOCAL_CURRENCY", string(core.ARS)),
		ForeignCurrency: getEnv("FOREIGN_CURRENCY", string(core.USD)),

		FXProvider:    getEnv("FX_PROVIDER", fx.ProviderNone),
		FXURL:         getEnv("FX_URL", ""),
		FXStaticBuy:   getEnvFloat("FX_STATIC_BUY", 0),
		FXStaticSell:  getEnvFloat("FX_STATIC_SELL", 0),
		FXXMLBuyPath:  getEnv("FX_XML_BUY_PATH", ""),
		FXXMLSellPath: getEnv("FX_XML_SELL_PATH", ""),
		FXCacheTTL:    getEnvDuration("FX_CACHE_TTL", 15*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finanzas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "statement_recompute"),

		AccrualSchedule:        getEnv("ACCRUAL_SCHEDULE", scheduler.DefaultAccrualSchedule),
		SnapshotExportSchedule: getEnv("SNAPSHOT_EXPORT_SCHEDULE", scheduler.DefaultExportSchedule),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSnapshotSheetName:  getEnv("GOOGLE_SNAPSHOT_SHEET_NAME", "KPIs"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		KPICacheSize: getEnvInt("KPI_CACHE_SIZE", 24),
		KPICacheTTL:  getEnvDuration("KPI_CACHE_TTL", 10*time.Minute),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "memory":
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [sqlite memory]", c.DataBackend))
	}
	if c.LegacyImportPath != "" {
		if _, err := os.Stat(c.LegacyImportPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("legacy import file does not exist: %s", c.LegacyImportPath))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if core.Currency(c.LocalCurrency).Validate() != nil {
		errors = append(errors, fmt.Sprintf("invalid local currency '%s': must be a three-letter code", c.LocalCurrency))
	}
	if core.Currency(c.ForeignCurrency).Validate() != nil {
		errors = append(errors, fmt.Sprintf("invalid foreign currency '%s': must be a three-letter code", c.ForeignCurrency))
	}

	switch strings.ToLower(c.FXProvider) {
	case "", fx.ProviderNone:
	case fx.ProviderStatic:
		if c.FXStaticSell <= 0 {
			errors = append(errors, "FX_STATIC_SELL must be positive for the static FX provider")
		}
	case fx.ProviderJSON, fx.ProviderXML:
		if u, err := url.Parse(c.FXURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid FX URL '%s' for the %s FX provider", c.FXURL, c.FXProvider))
		}
		if strings.ToLower(c.FXProvider) == fx.ProviderXML && c.FXXMLSellPath == "" {
			errors = append(errors, "FX_XML_SELL_PATH is required for the xml FX provider")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid FX provider '%s': must be one of none, static, json, xml", c.FXProvider))
	}
	if c.FXCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid FX cache TTL %v: must not be negative", c.FXCacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if err := scheduler.ValidateSpec(c.AccrualSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("ACCRUAL_SCHEDULE: %v", err))
	}
	if err := scheduler.ValidateSpec(c.SnapshotExportSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("SNAPSHOT_EXPORT_SCHEDULE: %v", err))
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSnapshotSheetName == "" {
			errors = append(errors, "Google snapshot sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.KPICacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid KPI cache size %d: must not be negative", c.KPICacheSize))
	}
	if c.KPICacheSize > 0 && c.KPICacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid KPI cache TTL %v: must be at least 1 second", c.KPICacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location returns the configured time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) Currencies() core.CurrencyPair {
	return core.CurrencyPair{
		Local:   core.NormalizeCurrency(c.LocalCurrency, core.ARS),
		Foreign: core.NormalizeCurrency(c.ForeignCurrency, core.USD),
	}
}

// FX returns the exchange rate provider settings.
func (c *Config) FX() fx.Config {
	return fx.Config{
		Provider:    c.FXProvider,
		URL:         c.FXURL,
		StaticBuy:   c.FXStaticBuy,
		StaticSell:  c.FXStaticSell,
		XMLBuyPath:  c.FXXMLBuyPath,
		XMLSellPath: c.FXXMLSellPath,
		CacheTTL:    c.FXCacheTTL,
	}
}

// Logger returns the logger settings for the configured level.
func (c *Config) Logger() log.Config {
	return log.Config{Level: log.ParseLevel(c.LogLevel), Component: log.ComponentApp}
}

// SheetsEnabled reports whether the KPI snapshot export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
