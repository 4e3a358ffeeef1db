// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Telegram    TelegramConfig
	Contract    ContractConfig
	Scheduler   SchedulerConfig
	Payment     PaymentConfig
	AWS         AWSConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	WebAppURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type TelegramConfig struct {
	BotToken       string
	APIBaseURL     string
	PostFetchHost  string
	FetchTimeout   int // in seconds
	InitDataMaxAge int // in seconds
}

// ContractConfig carries the lifecycle and settlement knobs. Percent
// values are whole percentages (5.0 means 5%).
type ContractConfig struct {
	PlacementHours          int
	MonitoringDays          int
	CommissionPercent       float64
	ExcellentBonusPercent   float64
	GoodBonusPercent        float64
	PenaltyBaseRate         float64
	PenaltyCapRate          float64
	ExpiryReliabilityLoss   int
	DeletionReliabilityLoss int
	WarningWindowHours      int
	MonitoringCheckHours    int
}

type SchedulerConfig struct {
	Enabled       bool
	SweepInterval int // in minutes
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	MinimumPayout        float64
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "adspoint"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Telegram: TelegramConfig{
			BotToken:       getEnv("TELEGRAM_BOT_TOKEN", ""),
			APIBaseURL:     getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			PostFetchHost:  getEnv("TELEGRAM_POST_FETCH_HOST", "https://t.me"),
			FetchTimeout:   getEnvAsInt("TELEGRAM_FETCH_TIMEOUT", 10),
			InitDataMaxAge: getEnvAsInt("TELEGRAM_INIT_DATA_MAX_AGE", 86400),
		},
		Contract: ContractConfig{
			PlacementHours:          getEnvAsInt("CONTRACT_PLACEMENT_HOURS", 24),
			MonitoringDays:          getEnvAsInt("CONTRACT_MONITORING_DAYS", 7),
			CommissionPercent:       getEnvAsFloat("CONTRACT_COMMISSION_PERCENT", 5.0),
			ExcellentBonusPercent:   getEnvAsFloat("CONTRACT_EXCELLENT_BONUS_PERCENT", 2.0),
			GoodBonusPercent:        getEnvAsFloat("CONTRACT_GOOD_BONUS_PERCENT", 1.0),
			PenaltyBaseRate:         getEnvAsFloat("CONTRACT_PENALTY_BASE_RATE", 0.20),
			PenaltyCapRate:          getEnvAsFloat("CONTRACT_PENALTY_CAP_RATE", 0.50),
			ExpiryReliabilityLoss:   getEnvAsInt("CONTRACT_EXPIRY_RELIABILITY_LOSS", 10),
			DeletionReliabilityLoss: getEnvAsInt("CONTRACT_DELETION_RELIABILITY_LOSS", 15),
			WarningWindowHours:      getEnvAsInt("CONTRACT_WARNING_WINDOW_HOURS", 2),
			MonitoringCheckHours:    getEnvAsInt("CONTRACT_MONITORING_CHECK_HOURS", 24),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getEnvAsBool("SCHEDULER_ENABLED", true),
			SweepInterval: getEnvAsInt("SCHEDULER_SWEEP_INTERVAL", 60),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			MinimumPayout:        getEnvAsFloat("MINIMUM_PAYOUT", 10.0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "adspoint-creatives"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "ru"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
		Frontend: FrontendConfig{
			WebAppURL: getEnv("WEBAPP_URL", "http://localhost:3000"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Telegram.BotToken == "" && c.Environment == "production" {
		return fmt.Errorf("telegram bot token is required in production")
	}

	if c.Contract.PenaltyBaseRate < 0 || c.Contract.PenaltyCapRate > 1 ||
		c.Contract.PenaltyBaseRate > c.Contract.PenaltyCapRate {
		return fmt.Errorf("invalid penalty rate configuration")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
