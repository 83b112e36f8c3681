package workflow

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/codeready-toolchain/meetingscribe/pkg/audio"
	"github.com/codeready-toolchain/meetingscribe/pkg/merge"
	"github.com/codeready-toolchain/meetingscribe/pkg/models"
	"github.com/codeready-toolchain/meetingscribe/pkg/storage"
)

// handlerFunc executes one DAG task, returning the object-storage key other
// tasks should read to find its output (possibly empty for tasks with no
// downstream consumer payload).
type handlerFunc func(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error)

// handlers maps each static task type to its implementation. Fan-out task
// names (pad_track#N, transcribe_track#N) dispatch through taskType.
var handlers = map[string]handlerFunc{
	TaskGetRecording:    handleGetRecording,
	TaskGetParticipants: handleGetParticipants,
	TaskPadTrack:        handlePadTrack,
	TaskMixdown:         handleMixdown,
	TaskWaveform:        handleWaveform,
	TaskTranscribeTrack: handleTranscribeTrack,
	TaskMergeWords:      handleMergeWords,
	TaskDetectTopics:    handleDetectTopics,
	TaskTitleSummary:    handleTitleSummary,
	TaskLongSummary:     handleLongSummary,
	TaskShortSummary:    handleShortSummary,
	TaskFinalize:        handleFinalize,
	TaskConsentCleanup:  handleConsentCleanup,
	TaskChatPost:        handleChatPost,
	TaskWebhookSend:     handleWebhookSend,
}

type recordingPayload struct {
	RecordingID string   `json:"recording_id"`
	BucketName  string   `json:"bucket_name"`
	TrackKeys   []string `json:"track_keys"`
}

// handleGetRecording loads the Recording row associated with this run's
// transcript and hands its track keys to the fork below.
func handleGetRecording(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	rec, err := deps.Store.Recordings.GetByID(ctx, t.RecordingID)
	if err != nil {
		return "", fmt.Errorf("load recording %s: %w", t.RecordingID, err)
	}

	trackKeys := rec.TrackKeys
	if len(trackKeys) == 0 && rec.ObjectKey != "" {
		trackKeys = []string{rec.ObjectKey}
	}

	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, recordingPayload{
		RecordingID: rec.ID, BucketName: rec.BucketName, TrackKeys: trackKeys,
	}); err != nil {
		return "", err
	}
	return key, nil
}

type participantsPayload struct {
	Participants []models.Participant `json:"participants"`
}

// handleGetParticipants derives the participant roster from the meeting's
// recorded consent decisions (no external roster API exists in the
// retrieval pack to call instead — consent rows are the only per-attendee
// record meetingscribe persists, per spec.md §3's MeetingConsent entity).
func handleGetParticipants(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	rec, err := deps.Store.Recordings.GetByID(ctx, t.RecordingID)
	if err != nil {
		return "", fmt.Errorf("load recording %s: %w", t.RecordingID, err)
	}
	if rec.MeetingID == nil {
		if err := deps.Store.Transcripts.UpdateParticipants(ctx, t.ID, nil); err != nil {
			return "", fmt.Errorf("clear participants for orphan recording: %w", err)
		}
		return "", nil
	}

	consents, err := deps.Store.Consents.ListByMeeting(ctx, *rec.MeetingID)
	if err != nil {
		return "", fmt.Errorf("list consents for meeting %s: %w", *rec.MeetingID, err)
	}

	participants := make([]models.Participant, len(consents))
	for i, c := range consents {
		consent := models.ConsentDenied
		if c.ConsentGiven {
			consent = models.ConsentGiven
		}
		participants[i] = models.Participant{ID: c.UserID, Name: c.UserID, Consent: consent}
	}

	if err := deps.Store.Transcripts.UpdateParticipants(ctx, t.ID, participants); err != nil {
		return "", fmt.Errorf("persist participants: %w", err)
	}

	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, participantsPayload{Participants: participants}); err != nil {
		return "", err
	}
	return key, nil
}

func trackIndex(task *models.WorkflowTask) (int, error) {
	var i int
	if _, err := fmt.Sscanf(task.Name, taskType(task.Name)+fanoutSep+"%d", &i); err != nil {
		return 0, fmt.Errorf("parse track index from %s: %w", task.Name, err)
	}
	return i, nil
}

type trackResultPayload struct {
	PaddedKey string  `json:"padded_key,omitempty"` // empty when padding short-circuited
	SourceKey string  `json:"source_key"`
	Offset    float64 `json:"offset"`
}

// handlePadTrack implements C2 for one track: prepend silence so the
// track's sample 0 aligns to the meeting's t=0, or pass the source through
// unchanged with a residual offset when no padding was needed.
func handlePadTrack(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	idx, err := trackIndex(task)
	if err != nil {
		return "", err
	}

	var recPayload recordingPayload
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskGetRecording), &recPayload); err != nil {
		return "", err
	}
	if idx >= len(recPayload.TrackKeys) {
		return "", fmt.Errorf("track index %d out of range (%d tracks)", idx, len(recPayload.TrackKeys))
	}

	sourceURL, err := deps.Storage.Presign(ctx, recPayload.TrackKeys[idx], storage.OpGet, 30*time.Minute, recPayload.BucketName)
	if err != nil {
		return "", fmt.Errorf("presign source track: %w", err)
	}

	tmp, err := os.CreateTemp("", "padded-*.webm")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	offset, ok, err := deps.Padder.Pad(ctx, sourceURL, tmp.Name())
	if err != nil {
		return "", fmt.Errorf("pad track %d: %w", idx, err)
	}

	result := trackResultPayload{SourceKey: recPayload.TrackKeys[idx], Offset: offset}
	if ok {
		destKey := fmt.Sprintf("workflow/%s/padded_%d.webm", run.ID, idx)
		f, err := os.Open(tmp.Name())
		if err != nil {
			return "", fmt.Errorf("open padded output: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("stat padded output: %w", err)
		}
		if err := deps.Storage.Put(ctx, destKey, f, info.Size(), ""); err != nil {
			return "", fmt.Errorf("upload padded track: %w", err)
		}
		result.PaddedKey = destKey
	}

	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, result); err != nil {
		return "", err
	}
	return key, nil
}

// handleMixdown implements C3: sum every padded (or residually-offset)
// track into the transcript's canonical audio object.
func handleMixdown(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}

	var recPayload recordingPayload
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskGetRecording), &recPayload); err != nil {
		return "", err
	}

	tracks := make([]audio.Track, len(task.Parents))
	for i, parentName := range task.Parents {
		var tr trackResultPayload
		if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, parentName), &tr); err != nil {
			return "", err
		}
		key := tr.PaddedKey
		residual := 0.0
		if key == "" {
			key = tr.SourceKey
			residual = tr.Offset
		}
		url, err := deps.Storage.Presign(ctx, key, storage.OpGet, 30*time.Minute, recPayload.BucketName)
		if err != nil {
			return "", fmt.Errorf("presign track %d: %w", i, err)
		}
		tracks[i] = audio.Track{URL: url, ResidualOffset: residual}
	}

	tmp, err := os.CreateTemp("", "mixdown-*.mp3")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	durationMs, err := deps.Mixer.Mix(ctx, tracks, tmp.Name())
	if err != nil {
		return "", fmt.Errorf("mixdown: %w", err)
	}

	f, err := os.Open(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("open mixdown output: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat mixdown output: %w", err)
	}
	if err := deps.Storage.Put(ctx, t.AudioObjectKey(), f, info.Size(), ""); err != nil {
		return "", fmt.Errorf("upload mixdown: %w", err)
	}
	if err := deps.Store.Transcripts.UpdateDuration(ctx, t.ID, float64(durationMs)/1000); err != nil {
		return "", fmt.Errorf("update duration: %w", err)
	}

	return "", nil
}

// handleWaveform implements C4: derive peak samples from the mixed-down
// audio for the UI's waveform view.
func handleWaveform(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}

	audioURL, err := deps.Storage.Presign(ctx, t.AudioObjectKey(), storage.OpGet, 30*time.Minute, "")
	if err != nil {
		return "", fmt.Errorf("presign mixdown audio: %w", err)
	}

	peaks, err := deps.Waveform.Extract(ctx, audioURL)
	if err != nil {
		return "", fmt.Errorf("extract waveform: %w", err)
	}
	if err := deps.Store.Transcripts.UpdateWaveform(ctx, t.ID, peaks); err != nil {
		return "", fmt.Errorf("persist waveform: %w", err)
	}
	return "", nil
}

type wordsPayload struct {
	Words []models.Word `json:"words"`
}

// handleTranscribeTrack implements C5 for one track: submit its padded (or
// residually-offset) audio to the configured ASR provider.
func handleTranscribeTrack(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	idx, err := trackIndex(task)
	if err != nil {
		return "", err
	}
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}

	var recPayload recordingPayload
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskGetRecording), &recPayload); err != nil {
		return "", err
	}

	var tr trackResultPayload
	padName := fanoutName(TaskPadTrack, idx)
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, padName), &tr); err != nil {
		return "", err
	}
	key := tr.PaddedKey
	if key == "" {
		key = tr.SourceKey
	}

	url, err := deps.Storage.Presign(ctx, key, storage.OpGet, 30*time.Minute, recPayload.BucketName)
	if err != nil {
		return "", fmt.Errorf("presign track %d: %w", idx, err)
	}

	words, err := deps.ASR.Transcribe(ctx, url, t.SourceLanguage, idx)
	if err != nil {
		return "", fmt.Errorf("transcribe track %d: %w", idx, err)
	}
	if tr.PaddedKey == "" && tr.Offset > 0 {
		for i := range words {
			words[i].Start += tr.Offset
			words[i].End += tr.Offset
		}
	}

	outKey := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, outKey, wordsPayload{Words: words}); err != nil {
		return "", err
	}
	return outKey, nil
}

// handleMergeWords implements C6: merge every track's word list into a
// single speaker-ordered stream.
func handleMergeWords(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	tracks := make([][]models.Word, len(task.Parents))
	for i, parentName := range task.Parents {
		var wp wordsPayload
		if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, parentName), &wp); err != nil {
			return "", err
		}
		tracks[i] = wp.Words
	}

	result := merge.Merge(tracks)

	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, wordsPayload{Words: result.Words}); err != nil {
		return "", err
	}
	return key, nil
}

type topicsPayload struct {
	Topics []models.Topic `json:"topics"`
}

// handleDetectTopics implements C7: chunk the merged word stream and derive
// an ordered topic list, fanning each chunk's LLM call out internally
// (pkg/topics.Segmenter.Segment) rather than as separate DAG nodes.
func handleDetectTopics(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}

	var wp wordsPayload
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskMergeWords), &wp); err != nil {
		return "", err
	}

	topicList := deps.Topics.Segment(ctx, wp.Words, t.SourceLanguage)
	if err := deps.Store.Transcripts.UpdateTopics(ctx, t.ID, topicList); err != nil {
		return "", fmt.Errorf("persist topics: %w", err)
	}
	if err := deps.Store.Transcripts.UpdateWebVTT(ctx, t.ID, buildWebVTT(topicList)); err != nil {
		return "", fmt.Errorf("persist webvtt: %w", err)
	}

	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, topicsPayload{Topics: topicList}); err != nil {
		return "", err
	}
	return key, nil
}

type textPayload struct {
	Text string `json:"text"`
}

func loadTopicsForSummary(ctx context.Context, deps *Dependencies, run *models.WorkflowRun) ([]models.Topic, string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return nil, "", fmt.Errorf("load transcript: %w", err)
	}
	var tp topicsPayload
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskDetectTopics), &tp); err != nil {
		return nil, "", err
	}
	language := t.TargetLanguage
	if language == "" {
		language = t.SourceLanguage
	}
	return tp.Topics, language, nil
}

func handleTitleSummary(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	topicList, language, err := loadTopicsForSummary(ctx, deps, run)
	if err != nil {
		return "", err
	}
	title := deps.Summary.GenerateTitle(ctx, topicList, language)
	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, textPayload{Text: title}); err != nil {
		return "", err
	}
	return key, nil
}

func handleLongSummary(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	topicList, language, err := loadTopicsForSummary(ctx, deps, run)
	if err != nil {
		return "", err
	}
	summary := deps.Summary.GenerateLongSummary(ctx, topicList, language)
	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, textPayload{Text: summary}); err != nil {
		return "", err
	}
	return key, nil
}

func handleShortSummary(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	topicList, language, err := loadTopicsForSummary(ctx, deps, run)
	if err != nil {
		return "", err
	}
	summary := deps.Summary.GenerateShortSummary(ctx, topicList, language)
	key := workflowKey(run.ID, task.Name)
	if err := putJSON(ctx, deps.Storage, key, textPayload{Text: summary}); err != nil {
		return "", err
	}
	return key, nil
}

// handleFinalize implements C8's completion step: gather the three summary
// outputs and flip the transcript to its terminal "ended" status (spec.md
// §3: a failed summary call degrades to an empty field, never to
// status=error).
func handleFinalize(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}

	var title, long, short textPayload
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskTitleSummary), &title); err != nil {
		return "", err
	}
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskLongSummary), &long); err != nil {
		return "", err
	}
	if err := getJSON(ctx, deps.Storage, workflowKey(run.ID, TaskShortSummary), &short); err != nil {
		return "", err
	}

	if err := deps.Store.Transcripts.UpdateSummaries(ctx, t.ID, title.Text, long.Text, short.Text); err != nil {
		return "", fmt.Errorf("persist summaries: %w", err)
	}
	if err := deps.Store.Transcripts.UpdateStatus(ctx, t.ID, models.StatusEnded); err != nil {
		return "", fmt.Errorf("mark transcript ended: %w", err)
	}
	return "", nil
}

// handleConsentCleanup implements C10 step 1: purge audio for meetings
// where any participant withheld consent.
func handleConsentCleanup(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	rec, err := deps.Store.Recordings.GetByID(ctx, t.RecordingID)
	if err != nil {
		return "", fmt.Errorf("load recording %s: %w", t.RecordingID, err)
	}
	if rec.MeetingID == nil {
		return "", nil
	}
	if err := deps.Consent.CleanupConsent(ctx, t.ID, *rec.MeetingID); err != nil {
		return "", fmt.Errorf("consent cleanup: %w", err)
	}
	return "", nil
}

// handleChatPost implements C10 step 2: post a completion notice to the
// room's configured Slack channel, if any.
func handleChatPost(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	room, err := deps.Store.Rooms.GetByID(ctx, t.RoomID)
	if err != nil {
		return "", fmt.Errorf("load room %s: %w", t.RoomID, err)
	}
	if err := deps.Chat.NotifyChat(ctx, t, room); err != nil {
		return "", fmt.Errorf("chat post: %w", err)
	}
	return "", nil
}

// handleWebhookSend implements C10 step 3: deliver the signed completion
// webhook to the room's configured endpoint, if any.
func handleWebhookSend(ctx context.Context, deps *Dependencies, run *models.WorkflowRun, task *models.WorkflowTask) (string, error) {
	t, err := deps.Store.Transcripts.Get(ctx, run.TranscriptID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	room, err := deps.Store.Rooms.GetByID(ctx, t.RoomID)
	if err != nil {
		return "", fmt.Errorf("load room %s: %w", t.RoomID, err)
	}

	webhookTopics := make([]models.WebhookTopic, len(t.Topics))
	for i, top := range t.Topics {
		webhookTopics[i] = models.WebhookTopic{Topic: top}
	}

	payload := models.WebhookPayload{
		TranscriptID: t.ID,
		Title:        t.Title,
		ShortSummary: t.ShortSummary,
		LongSummary:  t.LongSummary,
		Topics:       webhookTopics,
		Participants: t.Participants,
		FrontendURL:  deps.Config.DashboardURL,
	}
	if err := deps.Webhook.Send(ctx, room, payload); err != nil {
		return "", fmt.Errorf("webhook send: %w", err)
	}
	return "", nil
}
