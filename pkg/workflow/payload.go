package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/codeready-toolchain/meetingscribe/pkg/storage"
)

// putJSON uploads v, marshaled as JSON, to key in gw's default bucket. Used
// for the small inter-task payloads referenced by WorkflowTask.output_ref —
// a task's real artifacts (audio, word lists) live under their own
// canonical keys; output_ref only needs to carry enough for the next task
// to find them (spec.md §6, object-storage-referenced task payloads).
func putJSON(ctx context.Context, gw *storage.Gateway, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", key, err)
	}
	if err := gw.Put(ctx, key, bytes.NewReader(body), int64(len(body)), ""); err != nil {
		return fmt.Errorf("store payload %s: %w", key, err)
	}
	return nil
}

// getJSON downloads key and unmarshals it into v.
func getJSON(ctx context.Context, gw *storage.Gateway, key string, v any) error {
	rc, err := gw.Get(ctx, key, "")
	if err != nil {
		return fmt.Errorf("fetch payload %s: %w", key, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read payload %s: %w", key, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal payload %s: %w", key, err)
	}
	return nil
}

// workflowKey builds the canonical object key for a run-scoped intermediate
// payload.
func workflowKey(runID, taskName string) string {
	return fmt.Sprintf("workflow/%s/%s.json", runID, taskName)
}
