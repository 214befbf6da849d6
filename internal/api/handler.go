// Package api provides the HTTP surface over the interview engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"wren/internal/completion"
	"wren/internal/interview"
)

// Handler serves the session endpoints.
type Handler struct {
	ctrl   *interview.Controller
	logger *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(ctrl *interview.Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ctrl: ctrl, logger: logger}
}

// Router builds the full router with the standard middleware stack.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.ListSessions)
		r.Post("/", h.StartSession)
		r.Post("/{id}/messages", h.PostMessage)
		r.Get("/{id}/profile", h.GetProfile)
		r.Get("/{id}/transcript", h.GetTranscript)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

type messageRequest struct {
	Message string `json:"message"`
}

// StartSession creates a session, or resumes one when the requested id
// already has a live checkpoint.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	resp, err := h.ctrl.Start(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("failed to start session", zap.Error(err))
		Error(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	JSON(w, http.StatusCreated, resp)
}

// PostMessage runs one interview step.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := h.ctrl.Step(r.Context(), sessionID, req.Message)
	if err != nil {
		h.writeStepError(w, sessionID, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// writeStepError maps a step failure to a status code. Generation failures
// are reported as bad gateway so the client knows the same message can be
// retried against unchanged session state.
func (h *Handler) writeStepError(w http.ResponseWriter, sessionID string, err error) {
	h.logger.Error("step failed", zap.String("session_id", sessionID), zap.Error(err))

	var genErr *completion.GenerationError
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case errors.As(err, &genErr), errors.Is(err, completion.ErrTimeout):
		Error(w, http.StatusBadGateway, "provider call failed, retry the same message")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// GetProfile returns the profile view. Unknown ids are not an error.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	resp, err := h.ctrl.GetProfile(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to get profile", zap.String("session_id", sessionID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	JSON(w, http.StatusOK, resp)
}

// GetTranscript returns the readable transcript for a session.
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	transcript, err := h.ctrl.Transcript(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, interview.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("failed to load transcript", zap.String("session_id", sessionID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	JSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"transcript": transcript,
	})
}

// ListSessions returns the ids of all sessions with a live checkpoint.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.ctrl.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list sessions", zap.Error(err))
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	})
}
