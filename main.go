package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/vantagebi/vantage-engine/pkg/adapters/datasource"
	"github.com/vantagebi/vantage-engine/pkg/config"
	"github.com/vantagebi/vantage-engine/pkg/database"
	"github.com/vantagebi/vantage-engine/pkg/handlers"
	"github.com/vantagebi/vantage-engine/pkg/middleware"
	"github.com/vantagebi/vantage-engine/pkg/repositories"
	"github.com/vantagebi/vantage-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration; stdlib log until the logger exists.
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to template store", zap.Error(err))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Services
	subSvc, err := services.NewSubstitutionService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build substitution service", zap.Error(err))
	}
	templateRepo := repositories.NewTemplateRepository(db)
	templateSvc := services.NewTemplateService(templateRepo, subSvc, logger)

	manager := datasource.NewManager(datasource.NewFactory(), cfg.Datasources, logger)
	defer manager.CloseAll()
	executionSvc := services.NewExecutionService(templateSvc, manager, &cfg.Execution, logger)

	// HTTP surface
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSubstituteHandler(subSvc, &cfg.Security, logger).RegisterRoutes(mux)
	handlers.NewTemplateHandler(templateSvc, executionSvc, &cfg.Security, logger).RegisterRoutes(mux)
	handlers.NewDatasourcesHandler(manager, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting vantage-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.Int("datasources", len(cfg.Datasources)))

	if cfg.TLSCertPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// runMigrations brings the template store schema up to date. golang-migrate
// needs a database/sql connection, so this opens its own short-lived one.
func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	return database.RunMigrations(sqlDB, database.DefaultMigrationsPath, logger)
}

// buildLogger picks the zap preset for the environment: structured JSON in
// production, human-readable everywhere else.
func buildLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
