package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/devfolio/internal/ingest"
	"github.com/kalambet/devfolio/internal/storage"
)

const maxUploadSize = 10 << 20 // 10MB

// UploadStore persists uploaded files and queues their extraction.
type UploadStore interface {
	SaveUpload(ctx context.Context, u storage.Upload) error
	ListUploads(ctx context.Context, sessionID string) ([]storage.Upload, error)
	EnqueueJob(ctx context.Context, job storage.Job) error
}

type uploadResponse struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUploadResponse(u storage.Upload) uploadResponse {
	return uploadResponse{
		ID:          u.ID,
		SessionID:   u.SessionID,
		Filename:    u.Filename,
		ContentType: u.ContentType,
		Size:        u.Size,
		Status:      u.Status,
		Error:       u.LastError,
		CreatedAt:   u.CreatedAt,
	}
}

// handleUpload stores a multipart "file" field and enqueues its text
// extraction. The extracted text reaches the conversation asynchronously.
func handleUpload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Uploads == nil {
			httpError(w, http.StatusNotImplemented, "api_error", "uploads are not enabled")
			return
		}
		id := chi.URLParam(r, "id")
		if _, err := deps.Assistant.State(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart body: %v", err)
			return
		}
		file, hdr, err := r.FormFile("file")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "missing file field: %v", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading file: %v", err)
			return
		}
		if len(data) > maxUploadSize {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "file exceeds %d bytes", maxUploadSize)
			return
		}

		contentType := hdr.Header.Get("Content-Type")
		if ingest.Detect(hdr.Filename, contentType) == ingest.FormatUnknown {
			contentType = http.DetectContentType(data)
			if ingest.Detect(hdr.Filename, contentType) == ingest.FormatUnknown {
				httpError(w, http.StatusUnsupportedMediaType, "invalid_request_error", "unsupported file type: %s", hdr.Filename)
				return
			}
		}

		u := storage.Upload{
			ID:          uuid.New().String(),
			SessionID:   id,
			Filename:    hdr.Filename,
			ContentType: contentType,
			Size:        int64(len(data)),
			Data:        data,
			Status:      storage.UploadPending,
			CreatedAt:   time.Now().UTC(),
		}
		if err := deps.Uploads.SaveUpload(r.Context(), u); err != nil {
			writeError(w, err)
			return
		}

		job, err := ingest.NewJob(u.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := deps.Uploads.EnqueueJob(r.Context(), job); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, toUploadResponse(u))
	}
}

func handleListUploads(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Uploads == nil {
			httpError(w, http.StatusNotImplemented, "api_error", "uploads are not enabled")
			return
		}
		uploads, err := deps.Uploads.ListUploads(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]uploadResponse, 0, len(uploads))
		for _, u := range uploads {
			out = append(out, toUploadResponse(u))
		}
		writeJSON(w, http.StatusOK, map[string]any{"uploads": out})
	}
}
