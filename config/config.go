package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Marketplace MarketplaceConfig
	Quote       QuoteConfig
	Firebase    FirebaseConfig
	Storage     StorageConfig
	Escrow      EscrowConfig
	App         AppConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig holds both connection styles: DSN feeds the pgx pool used by
// the escrow ledger, the discrete fields feed the lib/pq connection used by
// users and order history. Both are optional; without them the service runs
// on in-memory stores.
type DatabaseConfig struct {
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MarketplaceConfig struct {
	BaseURL         string
	APIKey          string
	RateLimit       float64
	Burst           int
	Timeout         time.Duration
	MaxRetries      int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration
	CatalogPath     string
	ReferenceTTL    time.Duration
	RefreshSchedule string
}

type QuoteConfig struct {
	TTL           time.Duration
	CostTolerance float64
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
}

type StorageConfig struct {
	CertificateBucket string
	Region            string
}

type EscrowConfig struct {
	// SweepSchedule drives the job that cancels projects past their deadline.
	SweepSchedule string
	// EthUSD prices funding tree totals; zero leaves USD amounts at zero.
	EthUSD float64
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	DevMode     bool
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8000"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			DSN:      getEnv("DB_DSN", ""),
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "carbonchain"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:         getEnv("CARBONMARK_BASE_URL", "https://v17.api.carbonmark.com"),
			APIKey:          getEnv("CARBONMARK_API_KEY", ""),
			RateLimit:       getEnvAsFloat("CARBONMARK_RATE_LIMIT", 5),
			Burst:           getEnvAsInt("CARBONMARK_BURST", 10),
			Timeout:         getEnvAsDuration("CARBONMARK_TIMEOUT", 15*time.Second),
			MaxRetries:      getEnvAsInt("CARBONMARK_MAX_RETRIES", 2),
			BackoffInitial:  getEnvAsDuration("CARBONMARK_BACKOFF_INITIAL", 250*time.Millisecond),
			BackoffMax:      getEnvAsDuration("CARBONMARK_BACKOFF_MAX", 2*time.Second),
			CatalogPath:     getEnv("CATALOG_PATH", ""),
			ReferenceTTL:    getEnvAsDuration("REFERENCE_TTL", time.Hour),
			RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 0 * * * *"),
		},
		Quote: QuoteConfig{
			TTL:           getEnvAsDuration("QUOTE_TTL", 15*time.Minute),
			CostTolerance: getEnvAsFloat("QUOTE_COST_TOLERANCE", 0.01),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		},
		Storage: StorageConfig{
			CertificateBucket: getEnv("CERTIFICATE_BUCKET", ""),
			Region:            getEnv("AWS_REGION", "us-east-1"),
		},
		Escrow: EscrowConfig{
			SweepSchedule: getEnv("ESCROW_SWEEP_SCHEDULE", "0 */5 * * * *"),
			EthUSD:        getEnvAsFloat("ESCROW_ETH_USD", 0),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			DevMode:     getEnvAsBool("DEV_MODE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Marketplace.BaseURL == "" && c.Marketplace.CatalogPath == "" {
		return fmt.Errorf("one of CARBONMARK_BASE_URL or CATALOG_PATH is required")
	}
	if c.Quote.TTL <= 0 {
		return fmt.Errorf("QUOTE_TTL must be positive")
	}
	if c.Quote.CostTolerance < 0 {
		return fmt.Errorf("QUOTE_COST_TOLERANCE must not be negative")
	}
	if c.Marketplace.MaxRetries < 0 {
		return fmt.Errorf("CARBONMARK_MAX_RETRIES must not be negative")
	}
	if c.Escrow.EthUSD < 0 {
		return fmt.Errorf("ESCROW_ETH_USD must not be negative")
	}
	if c.Marketplace.RateLimit <= 0 {
		return fmt.Errorf("CARBONMARK_RATE_LIMIT must be positive")
	}
	return nil
}

// PostgresURL builds a lib/pq connection string from the discrete fields.
// It returns "" when no host is configured.
func (d DatabaseConfig) PostgresURL() string {
	if d.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(strings.ToLower(valueStr))
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
