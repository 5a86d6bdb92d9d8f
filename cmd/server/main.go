package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/taxledger/internal/api"
	v1 "github.com/flexprice/taxledger/internal/api/v1"
	"github.com/flexprice/taxledger/internal/cache"
	"github.com/flexprice/taxledger/internal/catalog"
	"github.com/flexprice/taxledger/internal/clock"
	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/postgres"
	"github.com/flexprice/taxledger/internal/publisher"
	"github.com/flexprice/taxledger/internal/pubsub/memory"
	"github.com/flexprice/taxledger/internal/repository"
	"github.com/flexprice/taxledger/internal/sentry"
	"github.com/flexprice/taxledger/internal/service"
	"github.com/flexprice/taxledger/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	_ = godotenv.Load()

	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
			cache.NewInMemoryCache,
			clock.New,

			// Postgres
			postgres.NewDB,

			// Repositories
			repository.NewTaxCodeRepository,
			repository.NewTaxationRepository,

			// Catalog
			catalog.NewStaticCatalog,

			// Events
			memory.NewPubSub,
			publisher.NewTaxationPublisher,
		),
		sentry.Module(),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewTaxConfigProvider,
			provideTaxResolvers,
			service.NewServiceParams,
			service.NewTaxationService,
		),
	)

	// API layer
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			migrateDatabase,
			startAPIServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideTaxResolvers(configs service.TaxConfigProvider, logger *logger.Logger) *service.TaxResolvers {
	return service.NewTaxResolvers(configs, logger)
}

func provideHandlers(taxationService service.TaxationService, logger *logger.Logger) api.Handlers {
	return api.Handlers{
		Health: v1.NewHealthHandler(logger),
		Tax:    v1.NewTaxHandler(taxationService, logger),
	}
}

func migrateDatabase(lc fx.Lifecycle, db *postgres.DB, cfg *config.Configuration, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Postgres.AutoMigrate {
				return nil
			}
			return db.Migrate(ctx)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Closing database connections...")
			return db.Close()
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
