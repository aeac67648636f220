package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"property-recommender/api"
	"property-recommender/auth"
	"property-recommender/config"
	"property-recommender/models"
	"property-recommender/services"
	"property-recommender/storage"
	"property-recommender/utils"
)

func main() {
	mode := flag.String("mode", "serve", "serve | import | insights")
	flag.Parse()

	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch *mode {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "import":
		err = importDataset(ctx, cfg, logger)
	case "insights":
		err = printInsights(ctx, cfg, logger)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		logger.Error("%s failed: %v", *mode, err)
		os.Exit(1)
	}
}

func loadSchema(cfg *config.Config) (*models.Schema, error) {
	schema := models.DefaultSchema()
	if cfg.SchemaPath != "" {
		var err error
		if schema, err = models.LoadSchema(cfg.SchemaPath); err != nil {
			return nil, err
		}
	}
	if err := schema.Has(cfg.FeatureColumns...); err != nil {
		return nil, fmt.Errorf("feature columns: %w", err)
	}
	return schema, nil
}

func openDB(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*sql.DB, error) {
	retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: time.Second, Logger: logger}
	db, err := storage.OpenPostgres(ctx, cfg.DSN(), retry)
	if err != nil {
		logger.Error("Make sure PostgreSQL is running: docker compose up -d")
		return nil, err
	}
	return db, nil
}

func csvSource(cfg *config.Config, logger *utils.Logger) *storage.CSVSource {
	return storage.NewCSVSource(cfg.DatasetPath, services.NewCleaner(logger), cfg.FeatureColumns...)
}

func listingSource(ctx context.Context, cfg *config.Config, db *sql.DB, logger *utils.Logger) (services.ListingSource, error) {
	if cfg.DataSource != config.SourcePostgres {
		return csvSource(cfg, logger), nil
	}
	store, err := storage.NewPostgresStore(ctx, db, cfg.MaxConcurrency, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func serve(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Property recommender starting (source: %s) ===", cfg.DataSource)

	schema, err := loadSchema(cfg)
	if err != nil {
		return err
	}
	engine, err := services.NewRecommender(schema, cfg.DisplayColumns, logger)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := listingSource(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	catalog := services.NewCatalog(source, engine, cfg.FeatureColumns, time.Now().UnixNano(), logger)
	if err := catalog.Reload(ctx); err != nil {
		return err
	}

	users, err := storage.NewPostgresUserStore(ctx, db)
	if err != nil {
		return err
	}
	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("[auth] SESSION_SECRET not set; sessions will not survive a restart")
	}
	tokens := auth.NewTokenManager(secret, cfg.SessionTTL)
	authSvc := auth.NewService(users, tokens, logger)

	srv := api.NewServer(catalog, services.NewInsightService(logger), authSvc,
		auth.NewThrottle(cfg.LoginRatePerMin), logger, api.Options{
			NumSimilar:     cfg.NumSimilar,
			SamplesPerCity: cfg.SamplesPerCity,
			SecureCookies:  cfg.Production(),
		})

	go reloadOnHangup(ctx, catalog, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// reloadOnHangup re-reads the dataset whenever the process receives SIGHUP.
func reloadOnHangup(ctx context.Context, catalog *services.Catalog, logger *utils.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := catalog.Reload(ctx); err != nil {
				logger.Error("[catalog] Reload failed, keeping current dataset: %v", err)
			}
		}
	}
}

// importDataset cleans the CSV dataset, exports the cleaned rows and loads
// them into PostgreSQL.
func importDataset(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	logger.Info("=== Importing %s ===", cfg.DatasetPath)

	listings, err := csvSource(cfg, logger).FetchAll(ctx)
	if err != nil {
		return err
	}
	logger.Info("Cleaned dataset: %d listings", len(listings))

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := storage.NewPostgresStore(ctx, db, cfg.MaxConcurrency, logger)
	if err != nil {
		return err
	}
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return err
	}
	defer csvWriter.Close()

	for _, w := range []storage.ListingWriter{csvWriter, store} {
		if err := w.Write(ctx, listings); err != nil {
			return err
		}
	}
	logger.Info("Clean listings saved to %s", cfg.CSVOutputPath)
	logger.Info("Clean listings stored in PostgreSQL (table: properties)")
	return nil
}

func printInsights(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	var source services.ListingSource = csvSource(cfg, logger)
	if cfg.DataSource == config.SourcePostgres {
		db, err := openDB(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if source, err = listingSource(ctx, cfg, db, logger); err != nil {
			return err
		}
	}

	listings, err := source.FetchAll(ctx)
	if err != nil {
		return err
	}
	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(listings))
	return nil
}
