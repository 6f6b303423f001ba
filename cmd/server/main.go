package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"saturn-terminal/internal/config"
	"saturn-terminal/internal/gateway"
	"saturn-terminal/internal/logger"
	"saturn-terminal/internal/prefs"
	"saturn-terminal/internal/server"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.NewServer(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync(logg)

	store := prefs.NewResilient(prefs.NewFileStore(cfg.PrefsPath), logg)

	runtime, err := server.New(cfg, store, logg)
	if err != nil {
		logg.Fatal("build ssh server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		go serveHTTP(ctx, cfg, logg)
	}

	if err := runtime.Run(ctx); err != nil {
		logg.Fatal("run ssh server", zap.Error(err))
	}
}

func serveHTTP(ctx context.Context, cfg config.Config, logg *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gateway.NewHandler(logg, cfg.FrameInterval).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logg.Info("http gateway starting", zap.String("event", "gateway_startup"), zap.String("address", cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error("http gateway stopped", zap.String("event", "gateway_failed"), zap.Error(err))
	}
}
