package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/invitegate/internal/adapters/http"
	"github.com/dkeye/invitegate/internal/adapters/livekit"
	wsignal "github.com/dkeye/invitegate/internal/adapters/signal"
	"github.com/dkeye/invitegate/internal/app"
	"github.com/dkeye/invitegate/internal/auth"
	"github.com/dkeye/invitegate/internal/config"
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
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		log.Fatal().Msg("LIVEKIT_API_KEY and LIVEKIT_API_SECRET are required")
	}

	tokens := auth.NewProvider(cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
	registry := app.NewRegistry()

	coord := &app.Coordinator{
		Registry: registry,
		Rooms:    livekit.NewClient(cfg.LiveKitURL, tokens),
		Tokens:   tokens,
		Hooks:    livekit.NewReceiver(tokens),
	}
	ws := wsignal.NewController(registry, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, coord, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("invitegate server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
