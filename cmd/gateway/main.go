package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kindify/kindify-gateway/internal/api"
	"github.com/kindify/kindify-gateway/internal/filter"
	"github.com/kindify/kindify-gateway/internal/gateway"
	"github.com/kindify/kindify-gateway/internal/guard"
	"github.com/kindify/kindify-gateway/internal/notify"
	"github.com/kindify/kindify-gateway/internal/recovery"
	"github.com/kindify/kindify-gateway/internal/session"
	"github.com/kindify/kindify-gateway/pkg/config"
	"github.com/kindify/kindify-gateway/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}
	cfg := config.Load()

	client := api.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	limits := recovery.Limits{
		CodeSends:      cfg.Recovery.CodeSends,
		CodeSendWindow: cfg.Recovery.CodeSendWindow,
		VerifyAttempts: cfg.Recovery.VerifyAttempts,
	}

	// Each browser session gets its own recovery machine and filter applier.
	registry := session.NewRegistry(cfg.Session.TTL, func(id string) (*recovery.Machine, *filter.Applier) {
		return recovery.NewMachine(client, limits), filter.NewApplier(client)
	})

	bus := notify.NewMemoryBus()
	unsubscribe := bus.Subscribe(func(event notify.Event) {
		// Presentation subscriber: surface flow outcomes in the log stream.
		if event.Level == notify.LevelError {
			logger.Warn("Flow event", "subject", event.Subject, "message", event.Message)
			return
		}
		logger.Info("Flow event", "subject", event.Subject, "message", event.Message)
	})
	defer unsubscribe()

	h := gateway.New(client, registry, bus, cfg)
	gm := guard.NewMiddleware(registry, cfg.Auth.CookieName, cfg.Auth.JWTSecret)
	router := gateway.NewRouter(h, gm)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go registry.Run(sweepCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down gateway...")
		stopSweep()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Gateway shutdown error", "error", err)
		}
	}()

	logger.Info("Starting gateway", "port", cfg.Server.Port, "upstream", cfg.Upstream.BaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Gateway server error", "error", err)
		stopSweep()
		os.Exit(1)
	}
}
