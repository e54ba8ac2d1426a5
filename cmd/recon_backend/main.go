package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/contaclara/recon_backend/internal/adapters/llm"
	portssvc "github.com/contaclara/recon_backend/internal/core/ports/services"
	"github.com/contaclara/recon_backend/internal/core/services"
	"github.com/contaclara/recon_backend/internal/handlers"
	"github.com/contaclara/recon_backend/internal/middleware"
	"github.com/contaclara/recon_backend/internal/platform/config"
	"github.com/contaclara/recon_backend/internal/repositories/database/pgsql"
	"github.com/contaclara/recon_backend/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The semantic comparator is optional: without an API key the scorer falls
	// back to plain string scores for ambiguous concepts.
	var comparator portssvc.SemanticComparator
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiComparator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("Failed to initialize semantic comparator", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := gemini.Close(); cerr != nil {
				logger.Error("Error closing semantic comparator", slog.String("error", cerr.Error()))
			}
		}()
		comparator = gemini
		logger.Info("Semantic comparator enabled", slog.String("model", cfg.GeminiModel))
	} else {
		logger.Warn("Semantic comparator disabled, ambiguous concept scores fall back to string matching")
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(
		repos,
		comparator,
		cfg.MatchingConfig(),
		cfg.BatchConfig(),
		cfg.SemanticCacheSize,
		logger,
	)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	if rate, err := limiter.NewRateFromFormatted(cfg.RateLimit); err == nil {
		store := memory.NewStore()
		r.Use(middleware.RateLimit(limiter.New(store, rate)))
	} else {
		logger.Warn("Invalid RATE_LIMIT format, rate limiting disabled", slog.String("rate_limit", cfg.RateLimit))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	// Batches interrupted by a previous crash are re-driven in the background
	// so every submitted document still reaches a terminal state.
	resumeCtx := middleware.WithLogger(context.Background(), logger)
	go func() {
		resumed, err := serviceContainer.Batch.ResumeUnfinishedBatches(resumeCtx)
		if err != nil {
			logger.Error("Failed to resume unfinished batches", slog.String("error", err.Error()))
			return
		}
		if resumed > 0 {
			logger.Info("Resumed unfinished batches", slog.Int("count", resumed))
		}
	}()

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations from the migrations directory.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Open a temporary standard sql.DB connection for migrations, using the
	// pgx stdlib driver to stay compatible with the main pool.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
