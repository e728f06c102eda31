// Package main runs the incentive aggregation HTTP service: providers,
// price resolution and the caching API server wired from flags and
// environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"incentive-hub/internal/aggregate"
	"incentive-hub/internal/chain"
	"incentive-hub/internal/pricing"
	"incentive-hub/internal/provider"
	"incentive-hub/internal/registry"
	"incentive-hub/internal/server"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
	rpcEndpoints := flag.String("rpc-endpoints", os.Getenv("RPC_ENDPOINTS"),
		"Comma-separated chainId=url pairs, e.g. 1=https://eth.example,137=https://polygon.example")
	aggregatorURL := flag.String("aggregator-url", os.Getenv("AGGREGATOR_API_URL"), "Campaign aggregator API base URL")
	marketIndexURL := flag.String("market-index-url", envOr("MARKET_INDEX_URL", pricing.DefaultMarketIndexURL), "Market index API base URL")
	registryPath := flag.String("registry", os.Getenv("REGISTRY_FILE"), "Token registry yaml (embedded defaults when empty)")
	programsPath := flag.String("programs", os.Getenv("PROGRAMS_FILE"), "Programs yaml (embedded defaults when empty)")
	responseTTL := flag.Duration("response-ttl", envDurationOr("RESPONSE_TTL", server.DefaultResponseTTL), "Response cache TTL")
	priceTTL := flag.Duration("price-ttl", envDurationOr("PRICE_TTL", pricing.DefaultPriceTTL), "Price cache TTL")
	providerTimeout := flag.Duration("provider-timeout", aggregate.DefaultProviderTimeout, "Per-provider fetch budget")
	origins := flag.String("cors-origins", envOr("CORS_ORIGINS", "*"), "Comma-separated allowed CORS origins")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	reg, err := loadRegistry(*registryPath)
	if err != nil {
		logger.Error("loading registry failed", "error", err)
		os.Exit(1)
	}
	programs, err := loadPrograms(*programsPath)
	if err != nil {
		logger.Error("loading programs failed", "error", err)
		os.Exit(1)
	}
	endpoints, err := parseEndpoints(*rpcEndpoints)
	if err != nil {
		logger.Error("parsing rpc endpoints failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := chain.NewRPCClient(endpoints)
	resolver := buildResolver(reader, reg, *marketIndexURL, *priceTTL, logger)
	providers := buildProviders(reader, reg, resolver, programs, *aggregatorURL, logger)

	service := aggregate.New(aggregate.Options{
		Providers:       providers,
		Registry:        reg,
		Resolver:        resolver,
		ProviderTimeout: *providerTimeout,
		Logger:          logger,
	})

	srv := server.New(server.Options{
		Addr:           *addr,
		Service:        service,
		ResponseTTL:    *responseTTL,
		AllowedOrigins: splitCSV(*origins),
		Logger:         logger,
	})
	srv.StartSweeper(ctx)

	sources := make([]string, len(providers))
	for i, p := range providers {
		sources[i] = p.Source().String()
	}
	logger.Info("starting incentive hub", "addr", *addr, "sources", strings.Join(sources, ","))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("shutdown complete")
}

// buildResolver assembles the price fallback chain: pool oracles, on-chain
// feeds, the market index, then the static table.
func buildResolver(reader chain.Reader, reg *registry.Registry, marketIndexURL string, ttl time.Duration, logger *slog.Logger) *pricing.Resolver {
	fetchers := []pricing.PriceFetcher{
		pricing.NewPoolReserveFetcher(reader, reg, logger),
		pricing.NewFeedFetcher(reader, reg, logger),
		pricing.NewMarketIndexFetcher(pricing.MarketIndexOptions{
			BaseURL:  marketIndexURL,
			Registry: reg,
			Logger:   logger,
		}),
		pricing.NewStaticFetcher(pricing.DefaultStaticPrices()),
	}
	return pricing.NewResolver(pricing.ResolverOptions{
		Registry: reg,
		Fetchers: fetchers,
		CacheTTL: ttl,
		Logger:   logger,
	})
}

// buildProviders wires every configured incentive source.
func buildProviders(reader chain.Reader, reg *registry.Registry, resolver *pricing.Resolver, programs provider.ProgramsFile, aggregatorURL string, logger *slog.Logger) []provider.Provider {
	providers := []provider.Provider{
		provider.NewCuratedProvider(provider.CuratedOptions{
			Campaigns: programs.Curated,
			Registry:  reg,
			Logger:    logger,
		}),
		provider.NewOnchainProvider(provider.OnchainOptions{
			Reader:   reader,
			Emitters: programs.Emitters,
			Registry: reg,
			Resolver: resolver,
			Logger:   logger,
		}),
		provider.NewStaticPointsProvider(provider.StaticPointsOptions{
			Programs: programs.Points,
			Registry: reg,
			Logger:   logger,
		}),
	}
	if aggregatorURL != "" {
		providers = append(providers, provider.NewAggregatorAPIProvider(provider.AggregatorAPIOptions{
			BaseURL:  aggregatorURL,
			Registry: reg,
			Logger:   logger,
		}))
	} else {
		logger.Warn("no aggregator API URL configured, source disabled")
	}
	return providers
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(path)
}

func loadPrograms(path string) (provider.ProgramsFile, error) {
	if path == "" {
		return provider.DefaultPrograms(), nil
	}
	return provider.LoadProgramsFile(path)
}

// parseEndpoints parses "1=https://...,137=https://..." into a chain map.
func parseEndpoints(raw string) (map[int64]string, error) {
	endpoints := make(map[int64]string)
	for _, pair := range splitCSV(raw) {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed endpoint pair %q", pair)
		}
		chainID, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed chain id in %q", pair)
		}
		endpoints[chainID] = strings.TrimSpace(parts[1])
	}
	return endpoints, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
