// Package main запускает HTTP-сервер сервиса подарочных карт.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/giftcard-system/internal/checkout"
	"github.com/mmeshcher/giftcard-system/internal/config"
	"github.com/mmeshcher/giftcard-system/internal/gateway"
	"github.com/mmeshcher/giftcard-system/internal/handler"
	"github.com/mmeshcher/giftcard-system/internal/middleware"
	"github.com/mmeshcher/giftcard-system/internal/repository"
	"github.com/mmeshcher/giftcard-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var gatewayClient *gateway.Client
	if cfg.PaymentGatewayAddress != "" {
		gatewayClient = gateway.NewClient(cfg.PaymentGatewayAddress)
	}

	svc := service.NewService(repo)
	defer svc.Close()

	checkoutSvc := checkout.NewService(repo, svc, gatewayClient, cfg.NonCashTolerance)

	operatorMiddleware := middleware.NewOperatorMiddleware(cfg.OperatorSecret)
	h := handler.NewHandler(svc, checkoutSvc, logger, operatorMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting giftcard server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
