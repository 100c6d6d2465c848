package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trendstage/api/internal/app"
	"trendstage/api/internal/config"
	"trendstage/api/internal/history"
	"trendstage/api/internal/preview"
	"trendstage/api/internal/search"
	"trendstage/api/internal/shopify"
	"trendstage/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.ShopDomain == "" || cfg.AccessToken == "" {
		log.Fatal("SHOPIFY_SHOP_DOMAIN and SHOPIFY_ACCESS_TOKEN are required")
	}

	shopClient := shopify.New(cfg.ShopDomain, cfg.APIVersion, cfg.AccessToken)

	service, cleanup := buildService(ctx, cfg, shopClient)
	defer cleanup()

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("TrendStage API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// buildService assembles the service from whatever backends the environment
// provides. Postgres, Redis, Meilisearch and the headless browser are all
// optional; the proposal lifecycle itself needs only Shopify credentials.
func buildService(ctx context.Context, cfg config.Config, shopClient *shopify.Client) (*app.Service, func()) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if err := os.MkdirAll(cfg.HistoryDir, 0o755); err != nil {
		log.Fatalf("failed to create history dir: %v", err)
	}
	historySvc := history.New(cfg.HistoryDir)
	shots := preview.New()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
		cleanups = append(cleanups, meiliClient.Close)
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		cleanups = append(cleanups, func() { db.Close() })
		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		pgStore := store.NewPostgresStore(db)
		searchSvc := search.NewService(meiliClient, pgStore)
		service := app.New(cfg, proposalStore(cfg, &cleanups), shopClient, pgStore, historySvc, searchSvc, shots)
		return service, cleanup
	}

	log.Printf("DATABASE_URL not set, suggestions disabled")
	searchSvc := search.NewService(meiliClient, nil)
	service := app.New(cfg, proposalStore(cfg, &cleanups), shopClient, nil, historySvc, searchSvc, shots)
	return service, cleanup
}

func proposalStore(cfg config.Config, cleanups *[]func()) app.ProposalStore {
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		*cleanups = append(*cleanups, func() { _ = redisStore.Close() })
		log.Printf("Using Redis for proposal storage")
		return redisStore
	}
	log.Printf("Using in-memory proposal storage")
	return store.NewMemoryStore()
}
