package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridgames/tictactoe-server/internal/config"
	"github.com/gridgames/tictactoe-server/internal/monitor"
	"github.com/gridgames/tictactoe-server/internal/repository"
	"github.com/gridgames/tictactoe-server/internal/room"
	"github.com/gridgames/tictactoe-server/internal/router"
	"github.com/gridgames/tictactoe-server/transport/rest"
	"github.com/gridgames/tictactoe-server/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	registry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(registry)

	var resultRepo repository.ResultRepository

	if addr := conf.Redis.GetRedisAddr(); addr != "" {
		storage, err := repository.NewStorage(ctx, addr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = storage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		resultRepo = repository.NewResultRepository(storage)
		log.Info("match result archive enabled", "addr", addr)
	} else {
		log.Info("match result archive disabled")
	}

	rooms := room.NewStore()
	gameRouter := router.New(logger, rooms, resultRepo, metrics)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		if httpErr := rest.Start(conf.HTTPPort, metricsHandler); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameRouter, metrics)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
