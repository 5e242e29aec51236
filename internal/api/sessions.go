package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/devfolio/internal/extract"
	"github.com/kalambet/devfolio/internal/mode"
	"github.com/kalambet/devfolio/internal/pipeline"
)

type createSessionRequest struct {
	Mode string `json:"mode"`
}

type messageRequest struct {
	Message string `json:"message" validate:"required,max=20000"`
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type canvasRequest struct {
	Canvas string `json:"canvas" validate:"max=200000"`
}

type sectionRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if r.ContentLength > 0 && !decodeBody(w, r, &req) {
			return
		}

		m := mode.PersonalBio
		if req.Mode != "" {
			parsed, err := mode.Parse(req.Mode)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			m = parsed
		}

		st, err := deps.Assistant.NewSession(r.Context(), m)
		if err != nil {
			writeError(w, err)
			return
		}
		res, err := deps.Assistant.State(r.Context(), st.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := deps.Assistant.State(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleResetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Assistant.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handlePostMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := deps.Assistant.HandleTurn(r.Context(), chi.URLParam(r, "id"), req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleSetMode(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req modeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		m, err := mode.Parse(req.Mode)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		res, err := deps.Assistant.SetMode(r.Context(), chi.URLParam(r, "id"), m)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleEditCanvas(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req canvasRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := deps.Assistant.Edit(r.Context(), chi.URLParam(r, "id"), req.Canvas)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// handleCanvasAction serves the body-less canvas operations (undo, refresh
// and clear).
func handleCanvasAction(action func(ctx context.Context, id string) (pipeline.TurnResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := action(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleAddSection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sectionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := deps.Assistant.AddSection(r.Context(), chi.URLParam(r, "id"), req.Title)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleRemoveSection(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := deps.Assistant.RemoveSection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "title"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type profileResponse struct {
	SessionID string          `json:"session_id"`
	Profile   extract.Profile `json:"profile"`
	Summary   string          `json:"summary"`
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := deps.Assistant.Profile(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{SessionID: id, Profile: p, Summary: p.Summary()})
	}
}
