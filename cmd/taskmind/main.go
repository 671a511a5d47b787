package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"taskmind/internal/auth"
	"taskmind/internal/classify"
	"taskmind/internal/server"
	"taskmind/internal/storage"
	"taskmind/internal/storage/remote"
	"taskmind/internal/storage/sqlite"
	"taskmind/internal/tasklist"
	"taskmind/internal/util"
)

func main() {
	_ = godotenv.Load()

	addrFlag := flag.String("addr", util.EnvOrDefault("TASKMIND_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("TASKMIND_DB_PATH", "data/taskmind.db"), "Path to sqlite database file")
	storeFlag := flag.String("store-url", util.EnvOrDefault("TASKMIND_STORE_URL", ""), "Base URL of the remote record store (empty = local sqlite)")
	staticFlag := flag.String("static", util.EnvOrDefault("TASKMIND_STATIC_DIR", "web/dist"), "Directory with built frontend")
	secretFlag := flag.String("secret", util.EnvOrDefault("TASKMIND_SECRET", "taskmind-dev-secret"), "Session token signing secret")
	modelFlag := flag.String("model", util.EnvOrDefault("TASKMIND_MODEL", "gpt-4o-mini"), "Model used for task classification")
	ttlFlag := flag.Int("session-ttl", util.EnvOrDefaultInt("TASKMIND_SESSION_TTL", 24), "Session token lifetime in hours")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("TaskMind starting")

	store, err := openStore(*storeFlag, *dbFlag, logger)
	if err != nil {
		logger.Error("unable to open task store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(schemaCtx); err != nil {
		cancelSchema()
		logger.Error("unable to ensure task schema", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cancelSchema()

	classifier := classify.New(openModel(*modelFlag, logger), util.EnvOrDefaultInt("TASKMIND_CLASSIFY_TOKENS", 8), logger)
	authSvc := auth.New(*secretFlag, time.Duration(*ttlFlag)*time.Hour, logger)

	controller := tasklist.New(store, classifier, logger)
	unsubscribe := controller.BindAuth(authSvc)
	defer unsubscribe()

	srv := server.New(authSvc, controller, logger, *staticFlag)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// openStore selects the remote record store when a URL is configured and
// falls back to the local sqlite database otherwise.
func openStore(storeURL, dbPath string, logger *slog.Logger) (storage.Store, error) {
	if storeURL != "" {
		logger.Info("using remote record store", slog.String("url", storeURL))
		return remote.New(storeURL, os.Getenv("TASKMIND_STORE_KEY"), logger), nil
	}
	logger.Info("using local sqlite store", slog.String("path", dbPath))
	return sqlite.Open(dbPath, logger)
}

// openModel builds the classification model. Without an API key the
// classifier runs in default-label mode and task creation still works.
func openModel(model string, logger *slog.Logger) llms.Model {
	if os.Getenv("OPENAI_API_KEY") == "" {
		logger.Warn("OPENAI_API_KEY not set; tasks will get default category and priority")
		return nil
	}
	llm, err := openai.New(openai.WithModel(model))
	if err != nil {
		logger.Warn("unable to initialize classification model", slog.String("error", err.Error()))
		return nil
	}
	return llm
}
