// Package main boots the order fulfillment HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fairyhunter13/order-fulfillment-service/internal/catalog"
	"github.com/fairyhunter13/order-fulfillment-service/internal/config"
	"github.com/fairyhunter13/order-fulfillment-service/internal/fulfill"
	httpapi "github.com/fairyhunter13/order-fulfillment-service/internal/http"
	"github.com/fairyhunter13/order-fulfillment-service/internal/obs"
	"github.com/fairyhunter13/order-fulfillment-service/internal/orders"
	"github.com/fairyhunter13/order-fulfillment-service/internal/persist"
)

func main() {
	cfg := config.Load()
	obs.InitLogger()
	defer func() { _ = obs.Logger.Sync() }()
	obs.Logger.Info("service_starting")

	file := persist.Open(cfg.DataPath)
	snap, err := file.Load()
	if err != nil {
		obs.Logger.Fatal("snapshot_load_error", zap.Error(err))
	}
	cat := catalog.NewFromProducts(snap.Products)
	ord := orders.NewFromOrders(snap.Orders)
	engine := fulfill.NewEngine(cat, cfg.ReserveMaxRetries)
	svc := fulfill.NewService(cat, ord, engine, file)

	app := httpapi.NewApp(cfg, svc)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", zap.String("signal", s.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obs.Logger.Error("http_shutdown_error", zap.Error(err))
	}
	obs.Logger.Info("service_stopped")
}
