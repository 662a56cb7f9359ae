package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	app_service "crypto-investigation-engine/internal/application/service"
	"crypto-investigation-engine/internal/domain/repository"
	domain_service "crypto-investigation-engine/internal/domain/service"
	"crypto-investigation-engine/internal/infrastructure/api"
	"crypto-investigation-engine/internal/infrastructure/cache"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/database"
	"crypto-investigation-engine/internal/infrastructure/explorer"
	"crypto-investigation-engine/internal/infrastructure/logger"
	"crypto-investigation-engine/internal/infrastructure/messaging"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Create FX application
	app := fx.New(
		// Provide dependencies
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Explorer),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			func() domain_service.ResponseCache { return cache.NewResponseCache() },
			explorer.NewLedgerGateway,
			database.NewNeo4JClient,
			newGraphArchive,
			messaging.NewNATSConsumer,
			func(investigation domain_service.InvestigationService, archive repository.GraphRepository) *api.Server {
				return api.NewServer(investigation, archive, cfg, log)
			},
		),

		// Domain services
		fx.Provide(
			domain_service.NewRiskClassifierService,
			func() domain_service.ThreatIntelService { return domain_service.NewStaticThreatIntelService() },
			func(cfg *config.Config) *domain_service.LayoutEngine {
				return domain_service.NewLayoutEngine(cfg.Layout)
			},
		),

		// Application providers
		fx.Provide(
			app_service.NewGraphBuilderService,
			app_service.NewInvestigationOrchestrator,
		),

		// Lifecycle hooks
		fx.Invoke(startEngine),
		fx.Invoke(startAPIServer),

		// Configure logging
		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	// Start the application
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	// Stop the application
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// newGraphArchive wires the Neo4J archive only when enabled. A nil archive
// means investigation results are not persisted.
func newGraphArchive(cfg *config.Config, client *database.Neo4JClient, log *logger.Logger) repository.GraphRepository {
	if !cfg.Neo4J.Enabled {
		return nil
	}
	return database.NewNeo4JGraphRepository(client, log)
}

// startEngine connects the optional backends and runs the NATS request workers
func startEngine(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	investigation domain_service.InvestigationService,
	neo4jClient *database.Neo4JClient,
	cfg *config.Config,
	log *logger.Logger,
) {
	engineCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting investigation engine...")

			if cfg.Neo4J.Enabled {
				log.Info("Connecting to Neo4J graph archive")
				if err := neo4jClient.Connect(ctx); err != nil {
					return fmt.Errorf("failed to connect to Neo4J: %w", err)
				}
			}

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			if cfg.NATS.Enabled {
				for i := 0; i < cfg.App.WorkerPoolSize; i++ {
					wg.Add(1)
					go func(workerID int) {
						defer wg.Done()
						processRequests(engineCtx, workerID, consumer, investigation, cfg, log)
					}(i)
				}
			}

			log.Info("Investigation engine started successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping investigation engine...")
			cancel()
			if err := consumer.Disconnect(); err != nil {
				log.Error("Failed to disconnect from NATS", zap.Error(err))
			}
			wg.Wait()
			if cfg.Neo4J.Enabled {
				if err := neo4jClient.Close(ctx); err != nil {
					log.Error("Failed to close Neo4J connection", zap.Error(err))
				}
			}
			return nil
		},
	})
}

// startAPIServer runs the HTTP API
func startAPIServer(
	lifecycle fx.Lifecycle,
	server *api.Server,
	log *logger.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP API server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

// processRequests drains queued investigation requests until shutdown
func processRequests(
	ctx context.Context,
	workerID int,
	consumer *messaging.NATSConsumer,
	investigation domain_service.InvestigationService,
	cfg *config.Config,
	log *logger.Logger,
) {
	log.Info("Starting investigation worker", zap.Int("worker_id", workerID))
	reqChan := consumer.GetRequestChannel()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-reqChan:
			if req == nil {
				// channel closed on disconnect
				return
			}
			reqCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			result, err := investigation.Investigate(reqCtx, *req)
			cancel()
			if err != nil {
				log.Error("Queued investigation failed",
					zap.Int("worker_id", workerID),
					zap.String("address", req.Address),
					zap.Error(err))
				continue
			}
			log.Info("Queued investigation complete",
				zap.Int("worker_id", workerID),
				zap.String("id", result.ID),
				zap.String("address", result.Address),
				zap.Int("risk_score", result.Wallet.RiskScore))
		}
	}
}
