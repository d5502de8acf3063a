package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mandalnilabja/chatrelay/internal/app"
	"github.com/mandalnilabja/chatrelay/internal/config"
	"github.com/mandalnilabja/chatrelay/internal/metrics"
	"github.com/mandalnilabja/chatrelay/internal/provider"
	"github.com/mandalnilabja/chatrelay/internal/provider/openrouter"
	"github.com/mandalnilabja/chatrelay/internal/tokenizer"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware/ratelimit"
)

// shutdownTimeout bounds how long in-flight streams may run after a stop signal.
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat relay server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context) error {
	logger := setupLogger(cfg, os.Stdout)

	if err := prepareDataDir(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	apiKeyCache, err := auth.NewCache()
	if err != nil {
		return fmt.Errorf("create API key cache: %w", err)
	}
	defer apiKeyCache.Close()

	repo := handler.NewRepo(handler.Deps{
		Upstream:    openrouter.New(cfg.OpenRouter),
		Credentials: provider.NewCredentialResolver(store),
		Storage:     store,
		Tokenizer:   tokenizer.New(),
		Metrics:     metrics.NewCollector(),
		Logger:      logger,
	})

	router := app.NewRouter(repo, &app.RouterOptions{
		Logger:      logger,
		Storage:     store,
		APIKeyCache: apiKeyCache,
		Limiter:     ratelimit.New(),
	})
	server := app.NewServer(cfg, router, logger)

	printStartupBanner(cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		// Cut the remaining streams; their handlers see a cancelled context
		logger.Warn("shutdown incomplete, closing open streams", "error", err)
		_ = server.Close()
	}

	// Request logs are written after responses end; flush them before closing storage
	repo.Chat.Drain()
	return nil
}

func prepareDataDir() error {
	if err := config.EnsureDataDir(cfg.DataDir); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := config.EnsureConfigFile(cfg.DataDir); err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	return nil
}
