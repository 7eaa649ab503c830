package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triagelab/crisisline/internal/api"
	"github.com/triagelab/crisisline/internal/auth"
	"github.com/triagelab/crisisline/internal/config"
	"github.com/triagelab/crisisline/internal/ingest"
	"github.com/triagelab/crisisline/internal/query"
	"github.com/triagelab/crisisline/internal/storage/sqlite"
	"github.com/triagelab/crisisline/internal/summarizer"
	"github.com/triagelab/crisisline/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "crisisline: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	callStorage, err := sqlite.NewCallStorage(db, log)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(
		cfg.Auth.AdminUsername,
		cfg.Auth.AdminPassword,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour,
	)
	if err != nil {
		return err
	}

	ingestService := ingest.NewService(callStorage, cfg.Webhook.AllowedAgentIDs, log)
	queryService := query.NewService(callStorage, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Summarizer.Enabled {
		client := summarizer.NewOpenAIClient(
			cfg.Summarizer.OpenAIAPIKey,
			cfg.Summarizer.Model,
			time.Duration(cfg.Summarizer.TimeoutSeconds)*time.Second,
		)
		sum := summarizer.New(ctx, callStorage, client, cfg.Summarizer, log)
		sum.Start()
		defer sum.Stop()
	}

	router := api.NewRouter(ingestService, queryService, authService, cfg, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
