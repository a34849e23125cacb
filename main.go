package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/dailies-studio/dailies-engine/pkg/config"
	"github.com/dailies-studio/dailies-engine/pkg/database"
	"github.com/dailies-studio/dailies-engine/pkg/handlers"
	"github.com/dailies-studio/dailies-engine/pkg/logging"
	"github.com/dailies-studio/dailies-engine/pkg/middleware"
	"github.com/dailies-studio/dailies-engine/pkg/providers"
	"github.com/dailies-studio/dailies-engine/pkg/repositories"
	"github.com/dailies-studio/dailies-engine/pkg/schema"
	"github.com/dailies-studio/dailies-engine/pkg/services"
	"github.com/dailies-studio/dailies-engine/pkg/storage"
	"github.com/dailies-studio/dailies-engine/pkg/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("storage_root", cfg.Storage.Root),
		zap.Bool("provider_enabled", cfg.Providers.Enabled))

	// Database
	db, err := database.NewConnection(ctx, &database.Config{
		URL:             cfg.Database.ConnectionString(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	// Artifact storage
	st, err := storage.New(cfg.Storage.Root)
	if err != nil {
		logger.Fatal("Failed to initialize storage root", zap.Error(err))
	}

	// The links table layout is inspected once at startup so legacy
	// column names keep working.
	linkCols, err := schema.ResolveLinkColumns(ctx, db.Pool)
	if err != nil {
		logger.Fatal("Failed to inspect links table", zap.Error(err))
	}

	// Repositories
	rowStore := store.New()
	linkRepo := repositories.NewLinkRepository(linkCols, rowStore)
	profileRepo := repositories.NewProviderProfileRepository()
	characterRepo := repositories.NewCharacterRepository()
	refSetRepo := repositories.NewRefSetRepository(rowStore)
	runRepo := repositories.NewRunRepository(rowStore)
	assetRepo := repositories.NewAssetRepository()
	reviewRepo := repositories.NewReviewRepository(rowStore)
	hierarchyRepo := repositories.NewHierarchyRepository()

	// Provider adapters
	registry := providers.NewRegistry(
		providers.NewMockAdapter(st),
		providers.NewOpenAIAdapter(cfg.Providers.OpenAIAPIKey, logger),
		providers.NewAnthropicAdapter(cfg.Providers.AnthropicAPIKey, st, logger),
	)

	// Services
	profileService := services.NewProviderProfileService(db, profileRepo, logger)
	characterService := services.NewCharacterService(db, characterRepo, refSetRepo, assetRepo, linkRepo, logger)
	assetService := services.NewAssetService(db, assetRepo, linkRepo, logger)
	reviewService := services.NewReviewService(reviewRepo, runRepo)
	trashService := services.NewTrashService(db, assetRepo, logger)
	transferService := services.NewTransferService(db, logger)
	runService := services.NewRunService(db, runRepo, linkRepo, assetRepo,
		profileService, characterService, registry, cfg.Providers.Enabled, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, db, st, logger).RegisterRoutes(mux)
	handlers.NewRunsHandler(runService, logger).RegisterRoutes(mux)
	handlers.NewLinksHandler(linkRepo, logger).RegisterRoutes(mux)
	handlers.NewCharactersHandler(characterService, logger).RegisterRoutes(mux)
	handlers.NewProviderProfilesHandler(profileService, logger).RegisterRoutes(mux)
	handlers.NewAssetsHandler(assetService, trashService, logger).RegisterRoutes(mux)
	handlers.NewReviewsHandler(reviewService, logger).RegisterRoutes(mux)
	handlers.NewShotsHandler(hierarchyRepo, linkRepo, logger).RegisterRoutes(mux)
	handlers.NewTransferHandler(transferService, logger).RegisterRoutes(mux)

	// Middleware chain: request id, request logging, pool-on-context.
	var handler http.Handler = mux
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = database.WithQuerierContext(db)(handler)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting dailies-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

