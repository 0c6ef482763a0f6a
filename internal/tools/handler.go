package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/promptforge/backend/internal/middleware"
	"github.com/promptforge/backend/internal/models"
)

// historyLimit caps GET /api/tools/history to the most recent entries.
const historyLimit = 50

// PromptStore defines the request-log persistence the handlers need.
type PromptStore interface {
	Insert(ctx context.Context, req *models.PromptRequest) (string, error)
	History(ctx context.Context, userID string, limit int64) ([]models.PromptRequest, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Handler holds the tool catalog and prompt submission HTTP handlers.
type Handler struct {
	prompts   PromptStore
	forwarder *Forwarder
	log       *slog.Logger
}

func NewHandler(prompts PromptStore, forwarder *Forwarder, log *slog.Logger) *Handler {
	return &Handler{prompts: prompts, forwarder: forwarder, log: log}
}

// List returns the full tool catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Catalog)
}

// Get returns a single tool by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tool, ok := FindTool(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Tool not found"})
		return
	}
	writeJSON(w, http.StatusOK, tool)
}

// Submit forwards a prompt to the tool's template, logs the exchange, and
// returns the response. The quota middleware has already admitted the
// request by the time this runs.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	toolID := chi.URLParam(r, "id")
	if _, ok := FindTool(toolID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Tool not found"})
		return
	}

	var req models.SubmitPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
		return
	}

	response, err := h.forwarder.Process(r.Context(), toolID, req.Prompt)
	if err != nil {
		// Only ErrUnknownTool reaches here, and the catalog check above
		// already rejected unknown ids.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Tool not found"})
		return
	}

	_, err = h.prompts.Insert(r.Context(), &models.PromptRequest{
		UserID:   user.ID,
		ToolID:   toolID,
		Prompt:   req.Prompt,
		Response: response,
	})
	if err != nil {
		h.log.Error("save prompt request", "err", err, "user_id", user.ID, "tool", toolID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

// History returns the user's most recent prompt requests.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	history, err := h.prompts.History(r.Context(), user.ID, historyLimit)
	if err != nil {
		h.log.Error("load history", "err", err, "user_id", user.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	if history == nil {
		history = []models.PromptRequest{}
	}
	writeJSON(w, http.StatusOK, history)
}
