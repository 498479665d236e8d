package handlers

import (
	"encoding/json"
	"net/http"

	"vbabrew-backend/internal/middleware"
	"vbabrew-backend/internal/models"
	"vbabrew-backend/internal/services"
)

// GenerateHandler is the one surface that works with or without a bearer
// token: anonymous callers still generate, they just don't get persistence.
type GenerateHandler struct {
	sessions *services.SessionManager
}

func NewGenerateHandler(sessions *services.SessionManager) *GenerateHandler {
	return &GenerateHandler{sessions: sessions}
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sess := req.Session
	if sess.ConversationHistory == nil {
		sess.ConversationHistory = []models.ChatMessage{}
	}

	userID := middleware.GetOptionalUserID(r.Context())

	result, err := h.sessions.SubmitPrompt(r.Context(), &sess, userID, req.Prompt, req.APIKey)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateResponse{Result: *result, Session: sess})
}
