// Command process-transcript is the operator CLI for dispatching or
// force-replaying a single transcript's workflow (spec.md §6, S4).
//
// Usage: process-transcript <id> [--sync] [--force]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/meetingscribe/pkg/config"
	"github.com/codeready-toolchain/meetingscribe/pkg/database"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
	"github.com/codeready-toolchain/meetingscribe/pkg/workflow"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	os.Exit(run())
}

func run() int {
	sync := flag.Bool("sync", false, "wait for the workflow to reach a terminal state")
	force := flag.Bool("force", false, "force-replay a transcript that is already processing")
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: process-transcript <id> [--sync] [--force]")
		return 2
	}
	transcriptID := flag.Arg(0)
	// flag.Parse stops at the id; parse again so flags may follow it.
	if err := flag.CommandLine.Parse(flag.Args()[1:]); err != nil || flag.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: process-transcript <id> [--sync] [--force]")
		return 2
	}

	envPath := filepath.Join(*configDir, ".env")
	_ = godotenv.Load(envPath)

	ctx := context.Background()

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("failed to load database config", "error", err)
		return 1
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return 1
	}
	defer dbClient.Close()

	st := store.New(dbClient)

	transcript, err := st.Transcripts.Get(ctx, transcriptID)
	if err != nil {
		slog.Error("transcript lookup failed", "id", transcriptID, "error", err)
		return 1
	}

	runID, err := dispatch(ctx, st, transcript, *force)
	if err != nil {
		slog.Error("dispatch failed", "id", transcriptID, "error", err)
		return 1
	}
	slog.Info("workflow dispatched", "transcript_id", transcriptID, "run_id", runID, "force", *force)

	if !*sync {
		return 0
	}

	status, err := waitForTerminal(ctx, st, runID)
	if err != nil {
		slog.Error("error waiting for workflow to finish", "run_id", runID, "error", err)
		return 1
	}
	slog.Info("workflow reached terminal state", "run_id", runID, "status", status)
	if status == models.RunStatusFailed {
		return 1
	}
	return 0
}

// dispatch starts a fresh workflow run for an idle transcript, or
// force-replays an existing one when force is set. Attempting to dispatch a
// transcript that is already processing without --force is a validation
// failure (spec.md §6, S4).
func dispatch(ctx context.Context, st *store.Store, transcript *models.Transcript, force bool) (string, error) {
	if force {
		if transcript.WorkflowRunID == "" {
			return "", errors.New("transcript has no workflow run to force-replay")
		}
		if err := workflow.ForceReplay(ctx, st, transcript.WorkflowRunID, transcript.ID); err != nil {
			return "", err
		}
		return transcript.WorkflowRunID, nil
	}

	if transcript.WorkflowRunID != "" {
		return "", fmt.Errorf("transcript %s is already processing (run %s); pass --force to replay", transcript.ID, transcript.WorkflowRunID)
	}

	recording, err := st.Recordings.GetByID(ctx, transcript.RecordingID)
	if err != nil {
		return "", fmt.Errorf("look up recording %s: %w", transcript.RecordingID, err)
	}

	runID := uuid.New().String()
	run, err := workflow.StartRun(ctx, st, runID, transcript.ID, recording)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// waitForTerminal polls the workflow run until it reaches a terminal
// status. There is no NOTIFY-driven completion signal on the CLI path, so
// this deliberately polls rather than sharing pkg/events' listener.
func waitForTerminal(ctx context.Context, st *store.Store, runID string) (models.RunStatus, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		run, err := st.Workflows.GetRun(ctx, runID)
		if err != nil {
			return "", err
		}
		switch run.Status {
		case models.RunStatusCompleted, models.RunStatusFailed:
			return run.Status, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
