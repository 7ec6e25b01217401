// README: API server entrypoint; wires config, storage and HTTP routing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdship/internal/config"
	httptransport "crowdship/internal/http"
	"crowdship/internal/infra"
	"crowdship/internal/modules/runs"
	"crowdship/internal/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var archive *runs.Store
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Error("connecting to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive = runs.NewStore(pool)
		if err := archive.EnsureSchema(ctx); err != nil {
			log.Error("preparing run archive", "error", err)
			os.Exit(1)
		}
		log.Info("run archive attached")
	} else {
		log.Warn("no database DSN configured, runs will not be persisted")
	}

	runner := service.NewRunner(cfg, archive, log)

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(runner, archive, log),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
