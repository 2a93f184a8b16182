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

	"github.com/dialstack/sipvr/internal/adapters/gateway"
	router "github.com/dialstack/sipvr/internal/adapters/http"
	"github.com/dialstack/sipvr/internal/adapters/present"
	"github.com/dialstack/sipvr/internal/adapters/rtc"
	"github.com/dialstack/sipvr/internal/app/orch"
	"github.com/dialstack/sipvr/internal/config"
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
	}

	client, err := gateway.Dial(ctx, cfg.GatewayURL, cfg.PingPeriod)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.GatewayURL).Msg("gateway dial failed")
	}
	if err := client.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("gateway session failed")
	}

	view := present.NewView()
	ctrl := orch.New(orch.Options{
		Proxy:     cfg.SIPProxy,
		ProxyPort: cfg.SIPProxyPort,
		DialURI:   cfg.DialURI,
		Room:      cfg.VideoRoom,
		Slots:     cfg.RoomSlots,
	}, client, rtc.Factory(rtc.DefaultWebRTCConfig()), view)
	go ctrl.Run(ctx)

	r := router.SetupRouter(cfg, ctrl, view)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("sipvr control API started")
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
	if err := client.Destroy(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("gateway session not destroyed cleanly")
	}
	log.Info().Msg("Server exited gracefully")
}
