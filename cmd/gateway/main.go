// The gateway command runs the promptdeck JSON-RPC gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promptdeck/promptdeck/internal/ai"
	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/config"
	"github.com/promptdeck/promptdeck/internal/logging"
	"github.com/promptdeck/promptdeck/internal/points"
	"github.com/promptdeck/promptdeck/internal/server"
	"github.com/promptdeck/promptdeck/internal/storage"
	"github.com/promptdeck/promptdeck/internal/storage/postgres"
	"github.com/promptdeck/promptdeck/internal/wechat"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	models := config.LoadModelsConfigOrDefault()
	model := cfg.AIModel
	if model == "" {
		model = models.ModelFor(cfg.AIPlatform)
	}
	generator, err := ai.New(ai.Config{
		Platform: cfg.AIPlatform,
		APIKey:   cfg.AIAPIKey,
		Model:    model,
	})
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, 0)
	srv := server.New(server.Options{
		Store:         store,
		Resolver:      auth.NewResolver(cfg.AdminSecret, tokens),
		Tokens:        tokens,
		Hasher:        auth.NewHasher(0),
		Ledger:        points.NewLedger(store, generator),
		WeChat:        wechat.NewClient(wechat.Config{AppID: cfg.WeChatAppID, Secret: cfg.WeChatSecret}),
		Logger:        logger,
		SignupPoints:  cfg.SignupPoints,
		RatePerSecond: cfg.RateLimitPerSecond,
		RateBurst:     cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(map[string]interface{}{"port": cfg.Port}).Info("gateway listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (storage.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; using in-memory store")
		return storage.NewMemory(), func() {}, nil
	}

	pg, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, func() { pg.Close() }, nil
}
