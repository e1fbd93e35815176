package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/config"
	"github.com/kailas-cloud/recollect/internal/db"
	dbRedis "github.com/kailas-cloud/recollect/internal/db/redis"
	"github.com/kailas-cloud/recollect/internal/domain"
	"github.com/kailas-cloud/recollect/internal/domain/catalog"
	logpkg "github.com/kailas-cloud/recollect/internal/logger"
	"github.com/kailas-cloud/recollect/internal/metrics"
	"github.com/kailas-cloud/recollect/internal/repository/llmcache"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/dlsite"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/dmm"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/fc2"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/fetch"
	"github.com/kailas-cloud/recollect/internal/transport/catalog/sokmil"
	chiTransport "github.com/kailas-cloud/recollect/internal/transport/chi"
	openaiLLM "github.com/kailas-cloud/recollect/internal/transport/openai"
	"github.com/kailas-cloud/recollect/internal/usecase/completion"
	"github.com/kailas-cloud/recollect/internal/usecase/fictitious"
	healthuc "github.com/kailas-cloud/recollect/internal/usecase/health"
	keyworduc "github.com/kailas-cloud/recollect/internal/usecase/keyword"
	"github.com/kailas-cloud/recollect/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/recollect/internal/usecase/search"
	"github.com/kailas-cloud/recollect/internal/version"
)

// fictitiousTemperature keeps invented entries varied.
const fictitiousTemperature = 0.9

func serveCMD() *cobra.Command {
	var env string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		RunE: func(_ *cobra.Command, _ []string) error {
			if env == "" {
				env = config.GetEnv()
			}
			return runServer(env)
		},
	}
	serve.Flags().StringVar(&env, "env", "", "config environment (default: $ENV or local)")
	return serve
}

func runServer(env string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting recollect API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("cache", cfg.Cache.Enabled()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterLLMMetrics()
	metrics.RegisterCatalogMetrics()

	store := openCache(&cfg.Cache, logger)
	if store != nil {
		defer store.Close()
	}

	// Build completer chains (composition root)
	base := openaiLLM.NewCompleter(&openaiLLM.Config{
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Provider: "openai",
		Logger:   logger,
	})
	extractorLLM := buildCompleter(base, store, &cfg, logger)
	// Invented entries are meant to differ between calls, so no cache.
	generatorLLM := completion.NewInstrumentedCompleter(base, "openai", cfg.LLM.Model, logger)

	clients := buildCatalogClients(&cfg.Catalog, logger)
	providers := make([]string, 0, len(clients))
	for p := range clients {
		providers = append(providers, string(p))
	}
	logger.Info("Catalog providers configured", zap.Strings("providers", providers))

	searchSvc := searchuc.New(
		keyworduc.New(extractorLLM, cfg.LLM.Temperature),
		retrieval.New(clients, cfg.Catalog.Hits, cfg.Catalog.MaxConcurrency),
		fictitious.New(generatorLLM, fictitiousTemperature),
		searchuc.Config{
			ResultLimit:    cfg.Search.ResultLimit,
			BroadenOnEmpty: cfg.Search.BroadenOnEmpty,
		},
	)

	// Pass nil interface (not typed nil pointer!) when the cache is off.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(base, cachePinger)

	server := chiTransport.NewServer(searchSvc, healthSvc,
		chiTransport.WithRequestTimeout(time.Duration(cfg.Search.RequestTimeoutSec)*time.Second))
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys: cfg.HTTP.APIKeys,
		Logger:  logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		logger.Error("HTTP server error", zap.Error(err))
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// openCache connects the completion cache. Returns nil when caching is
// disabled or the backend is unreachable; the service then runs uncached.
func openCache(cfg *config.CacheConfig, logger *zap.Logger) db.Store {
	if !cfg.Enabled() {
		return nil
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		logger.Warn("Cache unavailable, running without it", zap.Strings("addrs", cfg.Addrs), zap.Error(err))
		return nil
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Warn("Cache not ready, running without it", zap.Strings("addrs", cfg.Addrs), zap.Error(err))
		store.Close()
		return nil
	}

	logger.Info("Connected to cache", zap.Strings("addrs", cfg.Addrs))
	return store
}

// buildCompleter assembles the keyword extraction chain: OpenAI -> Cached -> Instrumented
func buildCompleter(base domain.Completer, store db.Store, cfg *config.Config, logger *zap.Logger) domain.Completer {
	completer := base
	if store != nil {
		completer = llmcache.New(base, store, llmcache.Config{
			KeyPrefix:  cfg.Cache.KeyPrefix,
			Model:      cfg.LLM.Model,
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
			CacheTotal: metrics.LLMCacheTotal,
			Cacheable:  keyworduc.Cacheable,
			Logger:     logger,
		})
	}
	return completion.NewInstrumentedCompleter(completer, "openai", cfg.LLM.Model, logger)
}

// buildCatalogClients creates one client per configured provider, each with
// its own throttled fetcher. DLsite needs no credentials and is always on.
func buildCatalogClients(cfg *config.CatalogConfig, logger *zap.Logger) map[catalog.Provider]retrieval.Searcher {
	newFetcher := func(p catalog.Provider) *fetch.Fetcher {
		return fetch.New(fetch.Config{
			Provider:       string(p),
			Timeout:        time.Duration(cfg.TimeoutSec) * time.Second,
			RequestsPerSec: cfg.RequestsPerSec,
			Logger:         logger.With(zap.String("catalog", string(p))),
		})
	}

	clients := map[catalog.Provider]retrieval.Searcher{
		catalog.DLsite: dlsite.New(dlsite.Config{BaseURL: cfg.DLsite.BaseURL}, newFetcher(catalog.DLsite)),
	}
	if cfg.DMM.APIID != "" {
		clients[catalog.DMM] = dmm.New(dmm.Config{
			APIID:       cfg.DMM.APIID,
			AffiliateID: cfg.DMM.AffiliateID,
			Floor:       cfg.DMM.Floor,
			BaseURL:     cfg.DMM.BaseURL,
		}, newFetcher(catalog.DMM))
	}
	if cfg.Sokmil.APIKey != "" {
		clients[catalog.Sokmil] = sokmil.New(sokmil.Config{
			APIKey:      cfg.Sokmil.APIKey,
			AffiliateID: cfg.Sokmil.AffiliateID,
			BaseURL:     cfg.Sokmil.BaseURL,
		}, newFetcher(catalog.Sokmil))
	}
	if cfg.FC2.Enabled() {
		clients[catalog.FC2] = fc2.New(fc2.Config{
			DevID:     cfg.FC2.DevID,
			DevSecret: cfg.FC2.DevSecret,
			BaseURL:   cfg.FC2.BaseURL,
		}, newFetcher(catalog.FC2))
	}
	return clients
}
