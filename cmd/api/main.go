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

	_ "github.com/joho/godotenv/autoload"

	"folio/api/internal/app"
	"folio/api/internal/cache"
	"folio/api/internal/config"
	"folio/api/internal/content"
	"folio/api/internal/email"
	"folio/api/internal/export"
	"folio/api/internal/preload"
	"folio/api/internal/search"
	"folio/api/internal/storage"
	"folio/api/internal/store"
	"folio/api/internal/translate"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	gateway := content.NewGateway(db)

	memoryCache := cache.NewMemory()
	memoryCache.StartCleanup(5 * time.Minute)
	defer memoryCache.Close()

	var persistent app.PersistentCache
	var translator app.Translator
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisCache.Close()
		redisCache.CleanExpired(ctx)
		persistent = redisCache

		if strings.TrimSpace(cfg.TranslateURL) != "" {
			translator = translate.NewEngine(
				translate.NewHTTPClient(cfg.TranslateURL, cfg.TranslateAPIKey),
				translate.NewRedisCache(redisCache.Client()),
				cfg.TranslateBatchItems,
				cfg.TranslateBatchChars,
				cfg.TranslateMonthlyBudget,
			)
		}
	} else {
		log.Printf("redis not configured, persistent cache and translation disabled")
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		To:       cfg.ContactTo,
	})
	if !mailer.IsConfigured() {
		log.Printf("smtp not configured, contact messages stay pending")
	}

	pgSearch := search.NewPgSearch(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgSearch)

	service := app.NewService(app.ServiceOptions{
		Gateway:    gateway,
		Store:      dataStore,
		Memory:     memoryCache,
		Persistent: persistent,
		Translator: translator,
		Mailer:     mailer,
		Searcher:   searchService,
		Preloader:  preload.New(),
		AuthSecret: cfg.AuthSecret,
		AccessTTL:  cfg.AccessTTL,
		CacheTTL:   cfg.ContentCacheTTL,
	})

	// Warm the published tree before taking traffic; a cold start with an
	// unreachable upstream is not fatal.
	warmCtx, cancelWarm := context.WithTimeout(ctx, 30*time.Second)
	if _, err := service.Refetch(warmCtx); err != nil {
		log.Printf("WARNING: initial content fetch failed: %v", err)
	}
	cancelWarm()

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	httpServer.SetExporter(export.NewService(service))

	if strings.TrimSpace(cfg.StorageEndpoint) != "" {
		assets, err := storage.New(storage.Config{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			BaseURL:   cfg.StorageBaseURL,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			log.Fatalf("storage client failed: %v", err)
		}
		if err := assets.EnsureBucket(ctx); err != nil {
			log.Printf("WARNING: storage bucket check failed: %v", err)
		}
		httpServer.SetAssetStore(assets)
	} else {
		log.Printf("object storage not configured, uploads disabled")
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Folio API listening on %s", cfg.Addr)
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
