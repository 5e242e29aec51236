// Package ingest turns uploaded files into chat history. Uploads are queued
// as extract_upload jobs; the Worker extracts their text and appends it to
// the session as a user message so the profile extractor sees it.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/devfolio/internal/chat"
	"github.com/kalambet/devfolio/internal/storage"
)

// JobType is the job queue type handled by Worker.
const JobType = "extract_upload"

// JobStore abstracts the job queue and upload operations.
type JobStore interface {
	ClaimNextJob(ctx context.Context, types []string) (*storage.Job, error)
	CompleteJob(ctx context.Context, id string) error
	FailJob(ctx context.Context, id string, errMsg string) error
	GetUpload(ctx context.Context, id string) (storage.Upload, error)
	SetUploadResult(ctx context.Context, id, status, text, lastError string) error
}

// Worker processes extract_upload jobs from the SQLite job queue.
type Worker struct {
	store   JobStore
	history storage.HistoryStore
	poll    time.Duration
	logger  *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, history storage.HistoryStore, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		store:   store,
		history: history,
		poll:    pollInterval,
		logger:  slog.Default(),
	}
}

type uploadPayload struct {
	UploadID string `json:"upload_id"`
}

// NewJob builds the queue entry for an upload.
func NewJob(uploadID string) (storage.Job, error) {
	payload, err := json.Marshal(uploadPayload{UploadID: uploadID})
	if err != nil {
		return storage.Job{}, err
	}
	return storage.Job{ID: uuid.New().String(), Type: JobType, PayloadJSON: string(payload)}, nil
}

// Message is the history entry recorded for an upload's text.
func Message(filename, text string) string {
	return fmt.Sprintf("[Uploaded file: %s]\n%s", filename, text)
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single extract_upload job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob(ctx, []string{JobType})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// processJob returns an error only for conditions worth retrying. A file
// that cannot be read is marked failed on the upload and the job completes.
func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload uploadPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	up, err := w.store.GetUpload(ctx, payload.UploadID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.Warn("upload vanished before extraction", "upload_id", payload.UploadID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading upload %s: %w", payload.UploadID, err)
	}
	if up.Status != storage.UploadPending {
		return nil
	}

	text, err := ExtractText(up.Filename, up.ContentType, up.Data)
	if err != nil {
		w.logger.Warn("text extraction failed", "upload_id", up.ID, "filename", up.Filename, "error", err)
		if err := w.store.SetUploadResult(ctx, up.ID, storage.UploadFailed, "", err.Error()); err != nil {
			return fmt.Errorf("recording extraction failure: %w", err)
		}
		return nil
	}

	if text != "" {
		if err := w.history.AppendMessage(ctx, up.SessionID, chat.RoleUser, Message(up.Filename, text)); err != nil {
			return fmt.Errorf("appending upload text: %w", err)
		}
	}
	if err := w.store.SetUploadResult(ctx, up.ID, storage.UploadExtracted, text, ""); err != nil {
		return fmt.Errorf("recording extraction: %w", err)
	}

	w.logger.Debug("upload extracted", "upload_id", up.ID, "filename", up.Filename, "bytes", len(text))
	return nil
}
