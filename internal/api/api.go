// Package api exposes the assistant over HTTP (chi) and MCP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kalambet/devfolio/internal/ingest"
	"github.com/kalambet/devfolio/internal/pipeline"
	"github.com/kalambet/devfolio/internal/prompts"
	"github.com/kalambet/devfolio/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

var validate = validator.New()

// Deps holds everything the HTTP handlers need.
type Deps struct {
	Assistant *pipeline.Assistant
	// Uploads is optional; without it the upload endpoints answer 501.
	Uploads UploadStore
	// Token, when set, is required as a bearer token on every session route.
	Token string
}

// NewHandler returns the HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/sessions", handleCreateSession(deps))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(deps))
			r.Delete("/", handleResetSession(deps))
			r.Post("/messages", handlePostMessage(deps))
			r.Put("/mode", handleSetMode(deps))
			r.Put("/canvas", handleEditCanvas(deps))
			r.Post("/canvas/undo", handleCanvasAction(deps.Assistant.Undo))
			r.Post("/canvas/refresh", handleCanvasAction(deps.Assistant.Refresh))
			r.Post("/canvas/clear", handleCanvasAction(deps.Assistant.Clear))
			r.Post("/sections", handleAddSection(deps))
			r.Delete("/sections/{title}", handleRemoveSection(deps))
			r.Get("/profile", handleGetProfile(deps))
			r.Get("/uploads", handleListUploads(deps))
			r.Post("/uploads", handleUpload(deps))
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "session not found")
	case errors.Is(err, pipeline.ErrEmptyMessage):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, pipeline.ErrNothingToUndo):
		httpError(w, http.StatusConflict, "conflict_error", "%v", err)
	case errors.Is(err, ingest.ErrUnsupported):
		httpError(w, http.StatusUnsupportedMediaType, "invalid_request_error", "%v", err)
	case errors.Is(err, prompts.ErrUnknownTemplate), errors.Is(err, prompts.ErrMissingParameter):
		slog.Error("prompt template error", "error", err)
		httpError(w, http.StatusInternalServerError, "template_error", "%v", err)
	default:
		slog.Error("request failed", "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
