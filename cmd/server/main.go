/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pix-withdraw-go/internal/common"
	"pix-withdraw-go/internal/config"
	"pix-withdraw-go/internal/httpapi"
	"pix-withdraw-go/internal/listener"

	"go.uber.org/zap"
)

func main() {
	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting PIX withdraw API",
		zap.String("addr", cfg.HTTP.Addr),
		zap.String("store", cfg.Store.Backend),
		zap.String("notifier", cfg.Notifier.Driver))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	validator := httpapi.NewValidator(cfg.Withdraw.Location, cfg.Withdraw.ScheduleHorizon, time.Now)
	handler := httpapi.NewHandler(services.Withdraws, validator)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(handler, logger, cfg.HTTP.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var settlement *listener.SettlementListener
	if cfg.Settlement.RunInServer {
		settlement = listener.NewSettlementListener(listener.SettlementListenerConfig{
			Sweeper:         services.Withdraws,
			Locker:          services.Locker,
			PollingInterval: cfg.Settlement.PollingInterval,
			LockTTL:         cfg.Settlement.LockTTL,
		})
		if err := settlement.Start(ctx); err != nil {
			zap.L().Fatal("Failed to start settlement listener", zap.Error(err))
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received")
	case err := <-serverErr:
		zap.L().Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced HTTP shutdown", zap.Error(err))
	}
	if settlement != nil {
		settlement.Stop()
	}
	zap.L().Info("Server stopped")
}
