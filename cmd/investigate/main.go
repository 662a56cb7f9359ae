package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	app_service "crypto-investigation-engine/internal/application/service"
	"crypto-investigation-engine/internal/domain/entity"
	domain_service "crypto-investigation-engine/internal/domain/service"
	"crypto-investigation-engine/internal/infrastructure/cache"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/explorer"
	"crypto-investigation-engine/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

var (
	flagNetwork      string
	flagDepth        int
	flagMaxNodes     int
	flagNoGraph      bool
	flagNoTxs        bool
	flagTimeout      time.Duration
	flagLogLevel     string
	flagPrettyOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "investigate <address>",
		Short: "Run a one-shot wallet investigation and print the result as JSON",
		Long: `investigate resolves a blockchain address through public ledger explorers,
classifies its risk, explores its counter-party graph and prints the full
investigation result as JSON on stdout.

The network is auto-detected from the address format unless --network is set.`,
		Args: cobra.ExactArgs(1),
		RunE: runInvestigate,
	}

	rootCmd.Flags().StringVarP(&flagNetwork, "network", "n", "", "network (bitcoin, ethereum, tron, litecoin); auto-detected when empty")
	rootCmd.Flags().IntVarP(&flagDepth, "depth", "d", 0, "graph exploration depth (0 uses the configured default)")
	rootCmd.Flags().IntVarP(&flagMaxNodes, "max-nodes", "m", 0, "graph node budget (0 uses the configured default)")
	rootCmd.Flags().BoolVar(&flagNoGraph, "no-graph", false, "skip counter-party graph exploration")
	rootCmd.Flags().BoolVar(&flagNoTxs, "no-transactions", false, "skip transaction history fetch")
	rootCmd.Flags().DurationVar(&flagTimeout, "timeout", 2*time.Minute, "overall investigation timeout")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&flagPrettyOutput, "pretty", true, "indent the JSON output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInvestigate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(flagLogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	gateway := explorer.NewLedgerGateway(&cfg.Explorer, cache.NewResponseCache(), log)
	intel := domain_service.NewStaticThreatIntelService()
	classifier := domain_service.NewRiskClassifierService()
	layout := domain_service.NewLayoutEngine(cfg.Layout)
	builder := app_service.NewGraphBuilderService(gateway, intel, classifier, cfg, log)
	orchestrator := app_service.NewInvestigationOrchestrator(
		gateway, intel, classifier, builder, layout, nil, cfg, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	req := entity.InvestigationRequest{
		Address: args[0],
		Network: entity.Network(flagNetwork),
		Options: entity.InvestigationOptions{
			FetchTransactions: !flagNoTxs,
			BuildGraph:        !flagNoGraph,
			GraphDepth:        flagDepth,
			MaxNodes:          flagMaxNodes,
		},
	}

	result, err := orchestrator.Investigate(ctx, req)
	if err != nil {
		return fmt.Errorf("investigation failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if flagPrettyOutput {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
