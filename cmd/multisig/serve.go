// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/multisig"
	"github.com/blinklabs-io/multisig/database"
	"github.com/blinklabs-io/multisig/event"
	"github.com/blinklabs-io/multisig/internal/config"
	"github.com/blinklabs-io/multisig/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger with the configured multisig installation",
		Run: func(cmd *cobra.Command, args []string) {
			serveRun(cmd, configFromCommand(cmd))
		},
	}
}

func serveRun(_ *cobra.Command, cfg *config.Config) {
	logger := commonRun()
	if err := serve(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func openDatabase(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*database.Database, error) {
	db, err := database.New(&database.Config{
		DataDir:          cfg.DatabasePath,
		Logger:           logger,
		BlobPlugin:       cfg.BlobPlugin,
		MetadataPlugin:   cfg.MetadataPlugin,
		PayloadCacheSize: cfg.PayloadCacheSize,
		PromRegistry:     promRegistry,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	blockInterval, err := cfg.BlockIntervalDuration()
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	deployCfg, err := cfg.Plugin.DeployConfig()
	if err != nil {
		return err
	}
	proposalDuration, err := cfg.Plugin.ProposalDurationValue()
	if err != nil {
		return err
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	tracerProvider, shutdownTracing, err := setupTracing(signalCtx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", "error", err)
		}
	}()

	promRegistry := prometheus.DefaultRegisterer
	db, err := openDatabase(cfg, logger, promRegistry)
	if err != nil {
		return err
	}
	defer db.Close()

	eventBus := event.NewEventBus(promRegistry, logger)
	defer eventBus.Stop()
	eventBus.SubscribeFunc(event.AllEvents, func(evt event.Event) {
		logEvent(logger, evt)
	})

	l, err := ledger.NewLedger(ledger.LedgerConfig{
		Logger:         logger,
		Database:       db,
		EventBus:       eventBus,
		PromRegistry:   promRegistry,
		TracerProvider: tracerProvider,
		ChainID:        cfg.ChainID,
	})
	if err != nil {
		return err
	}
	opts := []multisig.ConfigOptionFunc{
		multisig.WithPromRegistry(promRegistry),
	}
	if proposalDuration > 0 {
		opts = append(opts, multisig.WithDefaultProposalDuration(proposalDuration))
	}
	// Installation transactions are mined into their own blocks before the
	// ledger switches to interval mining
	deployment, err := multisig.Deploy(signalCtx, l, deployCfg, opts...)
	if err != nil {
		return err
	}
	if err := l.SetManualMining(true); err != nil {
		return err
	}
	logger.Info(
		"multisig plugin ready",
		"component", programName,
		"dao", deployment.DAO.Address().Hex(),
		"plugin", deployment.Plugin.Address().Hex(),
		"chain_id", l.ChainID(),
	)

	// Metrics listener
	metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(signalCtx)
	if cfg.MetricsPort > 0 {
		g.Go(func() error {
			logger.Info(
				"serving prometheus metrics on "+metricsAddr,
				"component", programName,
			)
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start metrics listener: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		return l.Run(gctx, blockInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(
			"initiating shutdown",
			"component", programName,
		)
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete", "component", programName)
	return nil
}

func logEvent(logger *slog.Logger, evt event.Event) {
	attrs := []any{
		"component", programName,
		"type", string(evt.Type),
	}
	switch data := evt.Data.(type) {
	case ledger.Log:
		attrs = append(
			attrs,
			"address", data.Address.Hex(),
			"block", data.BlockNumber,
			"sender", data.TxSender.Hex(),
			"data", fmt.Sprintf("%+v", data.Data),
		)
	case ledger.BlockMinedEvent:
		attrs = append(
			attrs,
			"block", data.Block.Number,
			"timestamp", data.Block.Timestamp,
			"tx_count", data.Block.TxCount,
		)
	}
	logger.Info("event", attrs...)
}
