package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/contaclara/recon_backend/internal/core/services"
	"github.com/contaclara/recon_backend/internal/matching"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Semantic oracle
	GeminiAPIKey      string
	GeminiModel       string
	SemanticCacheSize int

	// Matching engine tunables
	AmountTolerance     string
	DateWindowDays      int
	GateLowBand         int
	GateHighBand        int
	StringWeight        float64
	SemanticWeight      float64
	AutoLinkThreshold   int
	MinInstallmentTotal string

	// Batch orchestrator tunables
	BatchWorkerCount   int
	BatchLeaseDuration time.Duration
	BatchMaxAttempts   int

	// Rate limiting, e.g. "100-M" for 100 requests per minute
	RateLimit string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("SEMANTIC_CACHE_SIZE", 1000)
	viper.SetDefault("AMOUNT_TOLERANCE", "5")
	viper.SetDefault("DATE_WINDOW_DAYS", 15)
	viper.SetDefault("GATE_LOW_BAND", 30)
	viper.SetDefault("GATE_HIGH_BAND", 70)
	viper.SetDefault("STRING_WEIGHT", 0.3)
	viper.SetDefault("SEMANTIC_WEIGHT", 0.7)
	viper.SetDefault("AUTO_LINK_THRESHOLD", 95)
	viper.SetDefault("MIN_INSTALLMENT_TOTAL", "3000")
	viper.SetDefault("BATCH_WORKER_COUNT", 4)
	viper.SetDefault("BATCH_LEASE_DURATION", "2m")
	viper.SetDefault("BATCH_MAX_ATTEMPTS", 3)
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.GeminiAPIKey = viper.GetString("GEMINI_API_KEY")
	cfg.GeminiModel = viper.GetString("GEMINI_MODEL")
	cfg.SemanticCacheSize = viper.GetInt("SEMANTIC_CACHE_SIZE")
	if cfg.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set. Ambiguous concept scores will fall back to string matching.")
	}

	cfg.AmountTolerance = viper.GetString("AMOUNT_TOLERANCE")
	cfg.DateWindowDays = viper.GetInt("DATE_WINDOW_DAYS")
	cfg.GateLowBand = viper.GetInt("GATE_LOW_BAND")
	cfg.GateHighBand = viper.GetInt("GATE_HIGH_BAND")
	cfg.StringWeight = viper.GetFloat64("STRING_WEIGHT")
	cfg.SemanticWeight = viper.GetFloat64("SEMANTIC_WEIGHT")
	cfg.AutoLinkThreshold = viper.GetInt("AUTO_LINK_THRESHOLD")
	cfg.MinInstallmentTotal = viper.GetString("MIN_INSTALLMENT_TOTAL")

	cfg.BatchWorkerCount = viper.GetInt("BATCH_WORKER_COUNT")
	leaseStr := viper.GetString("BATCH_LEASE_DURATION")
	leaseDuration, err := time.ParseDuration(leaseStr)
	if err != nil {
		leaseDuration = 2 * time.Minute
		if leaseStr != "" {
			log.Printf("Warning: Invalid value for BATCH_LEASE_DURATION ('%s'). Defaulting to %s.\n", leaseStr, leaseDuration.String())
		}
	}
	cfg.BatchLeaseDuration = leaseDuration
	cfg.BatchMaxAttempts = viper.GetInt("BATCH_MAX_ATTEMPTS")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}

// MatchingConfig materializes the engine tunables, falling back to the
// defaults on unparseable decimal values.
func (c *Config) MatchingConfig() matching.Config {
	mc := matching.DefaultConfig()
	if tol, err := decimal.NewFromString(c.AmountTolerance); err == nil && tol.IsPositive() {
		mc.AmountTolerance = tol
	}
	if c.DateWindowDays > 0 {
		mc.DateWindowDays = c.DateWindowDays
	}
	if c.GateLowBand > 0 && c.GateHighBand > c.GateLowBand && c.GateHighBand <= 100 {
		mc.LowBand = c.GateLowBand
		mc.HighBand = c.GateHighBand
	}
	if c.StringWeight > 0 && c.SemanticWeight > 0 {
		mc.StringWeight = c.StringWeight
		mc.SemanticWeight = c.SemanticWeight
	}
	if c.AutoLinkThreshold > 0 {
		mc.AutoLinkThreshold = c.AutoLinkThreshold
	}
	if floor, err := decimal.NewFromString(c.MinInstallmentTotal); err == nil && floor.IsPositive() {
		mc.MinInstallmentTotal = floor
	}
	return mc
}

// BatchConfig materializes the orchestrator tunables.
func (c *Config) BatchConfig() services.BatchConfig {
	return services.BatchConfig{
		WorkerCount:   c.BatchWorkerCount,
		LeaseDuration: c.BatchLeaseDuration,
		MaxAttempts:   c.BatchMaxAttempts,
	}
}
