// Package main is the entry point for the OVERHEAT game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/events"
	"github.com/samwiegames/overheat/internal/network"
	"github.com/samwiegames/overheat/internal/platform/config"
	"github.com/samwiegames/overheat/internal/platform/logger"
	"github.com/samwiegames/overheat/internal/platform/metrics"
)

func main() {
	log.Println("[OVERHEAT-SERVER] Initializing authoritative game server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[OVERHEAT-SERVER] Invalid configuration: %v", err)
	}
	appLogger := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		appLogger.Error("Failed to load tuning: " + err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	be, err := openBackend(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
	defer be.close()

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLogWithCapacity(be.persister, cfg.EventLogCapacity, cfg.EventChannelBuffer)
	defer eventLog.Close()

	appLogger.Info("Bootstrapping Engine...")
	session, err := engine.NewSession(tuning, engine.Deps{
		Store:   be.store,
		History: be.history,
		Events:  eventLog,
		Logger:  appLogger.With(map[string]interface{}{"component": "session"}),
		Context: ctx,
	})
	if err != nil {
		appLogger.Error("Failed to create session: " + err.Error())
		os.Exit(1)
	}
	gameEngine := engine.NewEngine(session, engine.Options{
		InputBuffer: cfg.InputBuffer,
		TickRate:    cfg.TickInterval(),
		Logger:      appLogger.With(map[string]interface{}{"component": "engine"}),
	})
	gameEngine.Start(ctx)
	defer gameEngine.Stop()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	codec, err := network.NewCodec(cfg.WireFormat)
	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
	hub := network.NewHub(gameEngine, network.HubOptions{
		Codec:                codec,
		BroadcastBuffer:      cfg.BroadcastChannelBuffer,
		ClientSendBuffer:     cfg.ClientSendBuffer,
		MaxClients:           cfg.MaxClients,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
	}, appLogger.With(map[string]interface{}{"component": "hub"}))
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog, 0)
	hub.StartSnapshotBroadcaster(ctx, gameEngine, cfg.SnapshotInterval())

	// Setup API Routes
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", hub.ServeWS)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	network.NewReplayHandler(eventLog, be.recaps, be.leaderboard, appLogger).RegisterRoutes(r)
	network.NewControlHandler(gameEngine, gameEngine, hub, appLogger).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		appLogger.Info("HTTP API & WS Server listening on " + cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed: " + err.Error())
			cancel()
		}
	}()

	appLogger.Info("Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed: " + err.Error())
	}
	cancel()
}
