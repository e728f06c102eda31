// Package main is a one-shot CLI that runs a combined incentive fetch and
// prints the results as a table or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"incentive-hub/internal/aggregate"
	"incentive-hub/internal/chain"
	"incentive-hub/internal/domain"
	"incentive-hub/internal/pricing"
	"incentive-hub/internal/provider"
	"incentive-hub/internal/registry"
)

func main() {
	_ = godotenv.Load()

	rpcEndpoints := flag.String("rpc-endpoints", os.Getenv("RPC_ENDPOINTS"), "Comma-separated chainId=url pairs")
	aggregatorURL := flag.String("aggregator-url", os.Getenv("AGGREGATOR_API_URL"), "Campaign aggregator API base URL")
	marketIndexURL := flag.String("market-index-url", envOr("MARKET_INDEX_URL", pricing.DefaultMarketIndexURL), "Market index API base URL")
	registryPath := flag.String("registry", os.Getenv("REGISTRY_FILE"), "Token registry yaml (embedded defaults when empty)")
	programsPath := flag.String("programs", os.Getenv("PROGRAMS_FILE"), "Programs yaml (embedded defaults when empty)")
	chains := flag.String("chain", "", "Comma-separated chain IDs to include")
	statuses := flag.String("status", "", "Comma-separated statuses: LIVE, SOON, PAST")
	sources := flag.String("source", "", "Comma-separated sources to include")
	types := flag.String("type", "", "Comma-separated incentive types to include")
	asJSON := flag.Bool("json", false, "Print raw JSON instead of a table")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall fetch timeout")

	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	filter, err := buildFilter(*chains, *statuses, *sources, *types)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid filter: %v\n", err)
		os.Exit(2)
	}

	reg, err := loadRegistry(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading registry: %v\n", err)
		os.Exit(1)
	}
	programs, err := loadPrograms(*programsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading programs: %v\n", err)
		os.Exit(1)
	}
	endpoints, err := parseEndpoints(*rpcEndpoints)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsing rpc endpoints: %v\n", err)
		os.Exit(1)
	}

	reader := chain.NewRPCClient(endpoints)
	resolver := pricing.NewResolver(pricing.ResolverOptions{
		Registry: reg,
		Fetchers: []pricing.PriceFetcher{
			pricing.NewPoolReserveFetcher(reader, reg, logger),
			pricing.NewFeedFetcher(reader, reg, logger),
			pricing.NewMarketIndexFetcher(pricing.MarketIndexOptions{
				BaseURL:  *marketIndexURL,
				Registry: reg,
				Logger:   logger,
			}),
			pricing.NewStaticFetcher(pricing.DefaultStaticPrices()),
		},
		Logger: logger,
	})

	providers := []provider.Provider{
		provider.NewCuratedProvider(provider.CuratedOptions{Campaigns: programs.Curated, Registry: reg, Logger: logger}),
		provider.NewOnchainProvider(provider.OnchainOptions{
			Reader: reader, Emitters: programs.Emitters, Registry: reg, Resolver: resolver, Logger: logger,
		}),
		provider.NewStaticPointsProvider(provider.StaticPointsOptions{Programs: programs.Points, Registry: reg, Logger: logger}),
	}
	if *aggregatorURL != "" {
		providers = append(providers, provider.NewAggregatorAPIProvider(provider.AggregatorAPIOptions{
			BaseURL: *aggregatorURL, Registry: reg, Logger: logger,
		}))
	}

	service := aggregate.New(aggregate.Options{
		Providers: providers,
		Registry:  reg,
		Resolver:  resolver,
		Logger:    logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := service.Incentives(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}
	if !result.Complete {
		fmt.Fprintln(os.Stderr, "warning: at least one source did not answer, results are partial")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Incentives); err != nil {
			fmt.Fprintf(os.Stderr, "encoding failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printTable(result.Incentives)
}

func printTable(incs []*domain.Incentive) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"NAME", "CHAIN", "TYPE", "STATUS", "SOURCE", "REWARD", "APR", "CAMPAIGNS"})

	for _, inc := range incs {
		reward := ""
		switch {
		case inc.RewardToken != nil:
			reward = inc.RewardToken.Symbol
		case inc.Point != nil:
			reward = inc.Point.Name
		}
		apr := "-"
		if inc.CurrentAPR != nil {
			apr = fmt.Sprintf("%.2f%%", *inc.CurrentAPR)
		}
		t.AppendRow(table.Row{
			inc.Name,
			inc.ChainID,
			inc.Type,
			inc.Status,
			inc.Source,
			reward,
			apr,
			len(inc.AllCampaigns),
		})
	}
	t.AppendFooter(table.Row{"TOTAL", "", "", "", "", "", "", len(incs)})
	t.Render()
}

func buildFilter(chains, statuses, sources, types string) (domain.FilterOptions, error) {
	var filter domain.FilterOptions

	for _, raw := range splitCSV(chains) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid chain id %q", raw)
		}
		filter.ChainIDs = append(filter.ChainIDs, id)
	}
	for _, raw := range splitCSV(statuses) {
		status := domain.Status(strings.ToUpper(raw))
		if !status.IsValid() {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitCSV(sources) {
		source := domain.Source(strings.ToUpper(raw))
		if !source.IsValid() {
			return filter, fmt.Errorf("invalid source %q", raw)
		}
		filter.Sources = append(filter.Sources, source)
	}
	for _, raw := range splitCSV(types) {
		kind := domain.IncentiveType(strings.ToUpper(raw))
		if !kind.IsValid() {
			return filter, fmt.Errorf("invalid type %q", raw)
		}
		filter.Types = append(filter.Types, kind)
	}
	return filter, nil
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

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
