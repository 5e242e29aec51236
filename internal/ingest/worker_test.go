package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/devfolio/internal/chat"
	"github.com/kalambet/devfolio/internal/storage"
)

// flakyHistory fails the first failures appends.
type flakyHistory struct {
	*storage.MemoryStore
	mu       sync.Mutex
	failures int
}

func (f *flakyHistory) AppendMessage(ctx context.Context, sessionID string, role chat.Role, content string) error {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return errors.New("history unavailable")
	}
	f.mu.Unlock()
	return f.MemoryStore.AppendMessage(ctx, sessionID, role, content)
}

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func enqueueTestUpload(t *testing.T, store *storage.Store, id, filename, contentType, data string) storage.Job {
	t.Helper()
	up := storage.Upload{
		ID:          id,
		SessionID:   "sess-1",
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        []byte(data),
	}
	if err := store.SaveUpload(context.Background(), up); err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	job, err := NewJob(id)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := store.EnqueueJob(context.Background(), job); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}
	return job
}

// resetRunAfter sets run_after to now so the job is immediately claimable after FailJob backoff.
func resetRunAfter(t *testing.T, store *storage.Store, jobID string) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := store.DB().Exec(`UPDATE jobs SET run_after = ? WHERE id = ?`, now, jobID); err != nil {
		t.Fatalf("resetRunAfter: %v", err)
	}
}

func TestNewJob(t *testing.T) {
	job, err := NewJob("u-1")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if job.Type != JobType || job.ID == "" {
		t.Errorf("job = %+v", job)
	}
	var p map[string]string
	if err := json.Unmarshal([]byte(job.PayloadJSON), &p); err != nil || p["upload_id"] != "u-1" {
		t.Errorf("payload = %q (%v)", job.PayloadJSON, err)
	}
}

func TestWorker_ProcessesUpload(t *testing.T) {
	store := openTestStore(t)
	history := storage.NewMemoryStore()
	job := enqueueTestUpload(t, store, "u-1", "cv.txt", "text/plain", "I am a senior backend engineer.\nI use Python, AWS")

	w := NewWorker(store, history, 0)
	ctx := context.Background()

	didWork, err := w.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if !didWork {
		t.Fatal("RunOnce returned false, expected true")
	}

	h, _ := history.GetHistory(ctx, "sess-1")
	if len(h) != 1 {
		t.Fatalf("history len = %d, want 1", len(h))
	}
	if h[0].Role != chat.RoleUser {
		t.Errorf("role = %q, want user", h[0].Role)
	}
	if !strings.HasPrefix(h[0].Content, "[Uploaded file: cv.txt]\nI am a senior backend engineer.") {
		t.Errorf("content = %q", h[0].Content)
	}

	up, err := store.GetUpload(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetUpload: %v", err)
	}
	if up.Status != storage.UploadExtracted || !strings.Contains(up.Text, "Python, AWS") {
		t.Errorf("upload = status %q text %q", up.Status, up.Text)
	}

	got, err := store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != storage.JobCompleted {
		t.Errorf("job status = %q, want completed", got.Status)
	}

	didWork, err = w.RunOnce(ctx)
	if err != nil || didWork {
		t.Errorf("second RunOnce = %v, %v; want no work", didWork, err)
	}
}

func TestWorker_ImageAddsNoMessage(t *testing.T) {
	store := openTestStore(t)
	history := storage.NewMemoryStore()
	enqueueTestUpload(t, store, "u-img", "me.png", "image/png", "\x89PNG")

	w := NewWorker(store, history, 0)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if h, _ := history.GetHistory(context.Background(), "sess-1"); len(h) != 0 {
		t.Errorf("history = %v, want empty", h)
	}
	up, _ := store.GetUpload(context.Background(), "u-img")
	if up.Status != storage.UploadExtracted {
		t.Errorf("status = %q, want extracted", up.Status)
	}
}

func TestWorker_UnreadableFileMarksUploadFailed(t *testing.T) {
	store := openTestStore(t)
	history := storage.NewMemoryStore()
	job := enqueueTestUpload(t, store, "u-zip", "stuff.zip", "application/zip", "PK")

	w := NewWorker(store, history, 0)
	ctx := context.Background()
	if _, err := w.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	up, _ := store.GetUpload(ctx, "u-zip")
	if up.Status != storage.UploadFailed || !strings.Contains(up.LastError, "unsupported") {
		t.Errorf("upload = status %q error %q", up.Status, up.LastError)
	}
	got, _ := store.GetJob(ctx, job.ID)
	if got.Status != storage.JobCompleted {
		t.Errorf("job status = %q, want completed (no retry for unreadable files)", got.Status)
	}
}

func TestWorker_RetryOnFailure(t *testing.T) {
	store := openTestStore(t)
	history := &flakyHistory{MemoryStore: storage.NewMemoryStore(), failures: 2}
	job := enqueueTestUpload(t, store, "u-r", "notes.md", "", "Go, Rust")

	w := NewWorker(store, history, 0)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		didWork, err := w.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce %d error: %v", i, err)
		}
		if !didWork {
			t.Fatalf("RunOnce %d returned false", i)
		}
		got, _ := store.GetJob(ctx, job.ID)
		if got.Status != storage.JobPending || got.Attempts != i {
			t.Errorf("after fail %d: status=%q attempts=%d, want pending/%d", i, got.Status, got.Attempts, i)
		}
		resetRunAfter(t, store, job.ID)
	}

	didWork, err := w.RunOnce(ctx)
	if err != nil || !didWork {
		t.Fatalf("RunOnce 3 = %v, %v", didWork, err)
	}
	got, _ := store.GetJob(ctx, job.ID)
	if got.Status != storage.JobCompleted {
		t.Errorf("after 3rd attempt: status=%q, want completed", got.Status)
	}
	if h, _ := history.GetHistory(ctx, "sess-1"); len(h) != 1 {
		t.Errorf("history len = %d, want 1", len(h))
	}
}

func TestWorker_MaxRetriesExceeded(t *testing.T) {
	store := openTestStore(t)
	history := &flakyHistory{MemoryStore: storage.NewMemoryStore(), failures: 10}
	job := enqueueTestUpload(t, store, "u-m", "notes.txt", "text/plain", "Python")

	w := NewWorker(store, history, 0)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		didWork, err := w.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce %d error: %v", i, err)
		}
		if !didWork {
			t.Fatalf("RunOnce %d returned false", i)
		}
		if i < 3 {
			resetRunAfter(t, store, job.ID)
		}
	}

	got, _ := store.GetJob(ctx, job.ID)
	if got.Status != storage.JobFailed {
		t.Errorf("final status = %q, want %q", got.Status, storage.JobFailed)
	}
}

func TestWorker_ProcessesQueueInOrder(t *testing.T) {
	store := openTestStore(t)
	history := storage.NewMemoryStore()
	const total = 5
	for i := 0; i < total; i++ {
		enqueueTestUpload(t, store, fmt.Sprintf("u-%d", i), fmt.Sprintf("f%d.txt", i), "text/plain", fmt.Sprintf("file %d", i))
	}

	w := NewWorker(store, history, 0)
	ctx := context.Background()
	deadline := time.After(5 * time.Second)
	processed := 0
	for processed < total {
		select {
		case <-deadline:
			t.Fatalf("timed out after processing %d/%d jobs", processed, total)
		default:
		}
		didWork, err := w.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce error at job %d: %v", processed, err)
		}
		if didWork {
			processed++
		}
	}

	h, _ := history.GetHistory(ctx, "sess-1")
	if len(h) != total {
		t.Fatalf("history len = %d, want %d", len(h), total)
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	store := openTestStore(t)
	w := NewWorker(store, storage.NewMemoryStore(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
