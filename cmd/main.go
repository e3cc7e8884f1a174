package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/room-relay/config"
	"github.com/cwrk-planet/room-relay/internal/assistant"
	"github.com/cwrk-planet/room-relay/internal/metrics"
	"github.com/cwrk-planet/room-relay/internal/service"
	grpcx "github.com/cwrk-planet/room-relay/internal/transport/grpc"
	httpx "github.com/cwrk-planet/room-relay/internal/transport/http"
	"github.com/cwrk-planet/room-relay/internal/transport/ws"
	"github.com/cwrk-planet/room-relay/pkg/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting room-relay",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- relay ---
	m := metrics.New("room_relay")
	relay := service.NewRelay(
		assistant.NewScripted(cfg.AssistantMinDelay(), cfg.AssistantJitter()),
		service.Options{
			ReplayWindow:  cfg.Relay.ReplayWindow,
			Retain:        cfg.Relay.Retain,
			AssistantName: cfg.Relay.AssistantName,
			Triggers:      cfg.Relay.Triggers,
			Metrics:       m,
		},
	)

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, relay, m, ws.Config{
		AllowedOrigins: cfg.WS.AllowedOrigins,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		PingInterval:   cfg.PingInterval(),
		SendBuffer:     cfg.WS.SendBuffer,
		RateBurst:      cfg.WS.RateBurst,
		RateInterval:   cfg.RateInterval(),
	})

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:        httpx.NewHandler(relay),
		WS:             wsServer.HandleWS,
		Metrics:        m.Handler(),
		AllowedOrigins: cfg.WS.AllowedOrigins,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// --- gRPC ---
	grpcSrv := grpcx.NewServer()
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}

	// --- run both servers ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return grpcSrv.Serve(lis)
	})

	// --- graceful shutdown ---
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown", "cause", context.Cause(gctx))

		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		grpcSrv.Draining()

		// сначала relay: новые события отклоняются, сокеты закрываются
		if err := relay.Close(ctxShutdown); err != nil {
			slog.Warn("relay close", "err", err)
		}
		hub.CloseAll()
		if err := hub.Wait(ctxShutdown); err != nil {
			slog.Warn("ws connections still open", "count", hub.Len(), "err", err)
		}

		if err := httpSrv.Shutdown(ctxShutdown); err != nil {
			slog.Warn("http shutdown", "err", err)
		}
		grpcSrv.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}
