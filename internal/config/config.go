package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	Affiliate AffiliateConfig
	Events    EventsConfig
	Cron      CronConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// RateLimitConfig holds the per-client-address limiter settings
type RateLimitConfig struct {
	Backend       string
	RedisURL      string
	Window        time.Duration
	MaxKeys       int
	ActivateLimit int
	ValidateLimit int
	LoginLimit    int
}

// AffiliateConfig holds the affiliate program rules
type AffiliateConfig struct {
	CommissionPerSale decimal.Decimal
	RankingLimit      int
	LookupBatchSize   int
	IdentityPageSize  int
	OwnershipMatch    string
	SeedCodes         []string
}

// EventsConfig holds the activation event publisher settings
type EventsConfig struct {
	KafkaBrokers    []string
	ActivationTopic string
}

// CronConfig holds background job schedules
type CronConfig struct {
	CodeSweep    string
	TokenCleanup string
}

// Ownership match modes
const (
	OwnershipGenerated       = "generated"
	OwnershipGeneratedOrUsed = "generated_or_used"
)

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		Database:  loadDatabaseConfig(appMode),
		JWT:       loadJWTConfig(appMode),
		Cookie:    loadCookieConfig(appMode),
		RateLimit: loadRateLimitConfig(),
		Affiliate: loadAffiliateConfig(),
		Events:    loadEventsConfig(),
		Cron: CronConfig{
			CodeSweep:    getEnv("CODE_SWEEP_CRON", "@every 15m"),
			TokenCleanup: getEnv("TOKEN_CLEANUP_CRON", "0 3 * * *"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, config.Database.Driver)
	return config, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", c.Database.Driver)
	}
	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid RATE_LIMIT_BACKEND: '%s' (must be 'memory' or 'redis')", c.RateLimit.Backend)
	}
	switch c.Affiliate.OwnershipMatch {
	case OwnershipGenerated, OwnershipGeneratedOrUsed:
	default:
		return fmt.Errorf("invalid OWNERSHIP_MATCH: '%s'", c.Affiliate.OwnershipMatch)
	}
	return nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "affiliatehub"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 60),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Backend:       strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		Window:        time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		MaxKeys:       getEnvInt("RATE_LIMIT_MAX_KEYS", 500),
		ActivateLimit: getEnvInt("ACTIVATE_RATE_LIMIT", 5),
		ValidateLimit: getEnvInt("VALIDATE_RATE_LIMIT", 20),
		LoginLimit:    getEnvInt("LOGIN_RATE_LIMIT", 5),
	}
}

func loadAffiliateConfig() AffiliateConfig {
	commission, err := decimal.NewFromString(getEnv("COMMISSION_PER_SALE", "5.00"))
	if err != nil || commission.IsNegative() {
		commission = decimal.NewFromInt(5)
	}

	return AffiliateConfig{
		CommissionPerSale: commission,
		RankingLimit:      getEnvInt("RANKING_LIMIT", 100),
		LookupBatchSize:   getEnvInt("LOOKUP_BATCH_SIZE", 50),
		IdentityPageSize:  getEnvInt("IDENTITY_PAGE_SIZE", 50),
		OwnershipMatch:    strings.ToLower(getEnv("OWNERSHIP_MATCH", OwnershipGenerated)),
		SeedCodes:         splitList(getEnv("SEED_AFFILIATE_CODES", "")),
	}
}

func loadEventsConfig() EventsConfig {
	return EventsConfig{
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		ActivationTopic: getEnv("KAFKA_ACTIVATION_TOPIC", "affiliate.activated"),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses a positive integer, falling back to defaultValue
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://afiliados.amostra.com.br"
	}
	return origins
}
