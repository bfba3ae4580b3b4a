package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/showctl/dicentis-osc-bridge/internal/adapters/httpapi"
	"github.com/showctl/dicentis-osc-bridge/internal/bridge"
	"github.com/showctl/dicentis-osc-bridge/internal/config"
	"github.com/showctl/dicentis-osc-bridge/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	b := bridge.New(cfg, m)

	var srv *http.Server
	if cfg.HTTPPort > 0 {
		r := httpapi.SetupRouter(cfg, b, reg)
		srv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler: r,
		}
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("diagnostics API started")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("diagnostics API error")
			}
		}()
	}

	runErr := b.Run(ctx)
	if runErr != nil {
		log.Error().Err(runErr).Msg("bridge terminated")
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("diagnostics API forced to shutdown")
		}
	}
	if runErr != nil {
		os.Exit(1)
	}
	log.Info().Msg("bridge exited gracefully")
}
