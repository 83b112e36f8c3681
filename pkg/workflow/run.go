package workflow

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/store"
)

// StartRun creates a new WorkflowRun for transcriptID, seeding the full
// static DAG sized to recording's track count (spec.md §4.11). The
// transcript's status is advanced to "processing" and its workflow_run_id
// recorded in the same call.
func StartRun(ctx context.Context, st *store.Store, runID, transcriptID string, recording *models.Recording) (*models.WorkflowRun, error) {
	trackCount := len(recording.TrackKeys)
	if trackCount == 0 {
		trackCount = 1
	}

	run, err := st.Workflows.CreateRun(ctx, runID, transcriptID, false, BuildTaskSpecs(trackCount))
	if err != nil {
		return nil, fmt.Errorf("create workflow run: %w", err)
	}

	if err := seedFanInTotals(ctx, st, run.ID, trackCount); err != nil {
		return nil, err
	}

	if err := st.Transcripts.SetWorkflowRunID(ctx, transcriptID, run.ID); err != nil {
		return nil, fmt.Errorf("associate workflow run: %w", err)
	}
	if err := st.Transcripts.UpdateStatus(ctx, transcriptID, models.StatusProcessing); err != nil {
		return nil, fmt.Errorf("mark transcript processing: %w", err)
	}

	return run, nil
}

// ForceReplay re-seeds an existing run's tasks back to queued, for an
// operator-triggered full re-execution (spec.md §4.11).
func ForceReplay(ctx context.Context, st *store.Store, runID, transcriptID string) error {
	if err := st.Workflows.ResetForReplay(ctx, runID); err != nil {
		return fmt.Errorf("reset run %s for replay: %w", runID, err)
	}
	if err := st.Transcripts.UpdateStatus(ctx, transcriptID, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark transcript processing: %w", err)
	}
	return nil
}

// seedFanInTotals records the known fan-out width on each fan-in gate task
// so DAG_STATUS snapshots can report "3 of 5 tracks transcribed"-style
// progress from the moment the run starts.
func seedFanInTotals(ctx context.Context, st *store.Store, runID string, trackCount int) error {
	tasks, err := st.Workflows.ListTasks(ctx, runID)
	if err != nil {
		return fmt.Errorf("list tasks for fan-in seeding: %w", err)
	}
	for _, t := range tasks {
		if t.Name == TaskMixdown || t.Name == TaskMergeWords {
			if err := st.Workflows.SetChildrenTotal(ctx, t.ID, trackCount); err != nil {
				return fmt.Errorf("seed children_total for %s: %w", t.Name, err)
			}
		}
	}
	return nil
}
