// Command meetingscribe runs the orchestrator server: it serves the HTTP/
// WebSocket API (pkg/api), the inbound recording webhook (pkg/intake), and
// the workflow worker pool (pkg/workflow) in a single process. See spec.md §6.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/meetingscribe/pkg/api"
	"github.com/codeready-toolchain/meetingscribe/pkg/audio"
	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/database"
	"github.com/codeready-toolchain/meetingscribe/pkg/events"
	"github.com/codeready-toolchain/meetingscribe/pkg/intake"
	"github.com/codeready-toolchain/meetingscribe/pkg/retention"
	"github.com/codeready-toolchain/meetingscribe/pkg/storage"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
	"github.com/codeready-toolchain/meetingscribe/pkg/telemetry"
	"github.com/codeready-toolchain/meetingscribe/pkg/workflow"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")
	podID := getEnv("POD_ID", "meetingscribe-0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting meetingscribe", "config_dir", *configDir, "pod_id", podID)

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		slog.Error("failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	stats := cfg.Stats()
	slog.Info("configuration loaded", "asr_providers", stats.ASRProviders, "llm_providers", stats.LLMProviders, "task_policies", stats.TaskPolicies)

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	slog.Info("connected to database and applied migrations")

	st := store.New(dbClient)

	gw, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize storage gateway", "error", err)
		os.Exit(1)
	}

	publisher := events.NewPublisher(dbClient.Pool)
	recorder := telemetry.NewRecorder()

	deps, err := workflow.NewDependencies(cfg, st, gw, audio.ExecRunner{}, publisher, recorder)
	if err != nil {
		slog.Error("failed to wire workflow dependencies", "error", err)
		os.Exit(1)
	}
	engine := workflow.NewEngine(deps, cfg.TaskPolicyRegistry)
	pool := workflow.NewWorkerPool(podID, st.Workflows, cfg.Queue, engine)
	pool.Start(ctx)
	defer pool.Stop()

	connManager := events.NewConnectionManager(events.NewEventStoreAdapter(st.Events), 10*time.Second)

	listener := events.NewNotifyListener(dbConfig.DSN(), connManager)
	connManager.SetListener(listener)
	if err := listener.Start(ctx); err != nil {
		slog.Error("failed to start notify listener", "error", err)
		os.Exit(1)
	}
	defer listener.Stop(context.Background())

	locker := retention.NewLockerFromConfig(cfg.Redis.AddrEnv)
	retentionSvc := retention.NewService(cfg.Retention, st, gw, locker)
	retentionSvc.Start(ctx)
	defer retentionSvc.Stop()

	intakeHandler := intake.NewHandler(st, cfg.Intake)
	server := api.NewServer(cfg, dbClient, intakeHandler, connManager, recorder)

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		slog.Error("failed to bind HTTP listener", "addr", httpAddr, "error", err)
		os.Exit(1)
	}

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpAddr)
		serveErrCh <- server.StartWithListener(ln)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErrCh:
		if err != nil {
			slog.Error("HTTP server exited unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during HTTP server shutdown", "error", err)
	}
	slog.Info("meetingscribe stopped")
}
