// Package server parses scoring server flags and launches the service.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/flyingdarts/x01/internal/gateway"
	"github.com/flyingdarts/x01/internal/match/service"
	entrypoint "github.com/flyingdarts/x01/internal/platform/cmd"
	"github.com/flyingdarts/x01/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Config holds scoring server command configuration.
type Config struct {
	Port   int    `env:"FLYINGDARTS_SERVER_PORT" envDefault:"8080"`
	DBPath string `env:"FLYINGDARTS_DB_PATH" envDefault:"x01.db"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The scoring server HTTP port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the scoring websocket service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		return serve(ctx, cfg)
	})
}

func serve(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	sessions, err := gateway.LoadSessionConfigFromEnv(nil)
	if err != nil {
		return err
	}

	logger := slog.Default()
	hub := gateway.NewHub(logger)
	svc := service.NewService(store, hub, nil, nil)
	handler := gateway.NewHandler(svc, hub, sessions, logger)

	mux := http.NewServeMux()
	mux.Handle("/connect", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("scoring server listening on %s", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
