package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"vbabrew-backend/internal/middleware"
	"vbabrew-backend/internal/models"
)

type chatRepository interface {
	Create(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, ownerID, chatID uuid.UUID) (*models.Chat, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChatSummary, error)
	Update(ctx context.Context, ownerID, chatID uuid.UUID, partial models.UpdateChatRequest) (*models.Chat, error)
	Delete(ctx context.Context, ownerID, chatID uuid.UUID) error
}

type ChatHandler struct {
	chatRepo chatRepository
}

func NewChatHandler(chatRepo chatRepository) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo}
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	chats, err := h.chatRepo.ListByOwner(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chats", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	chat, err := h.chatRepo.GetByID(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chat", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title is required", r))
		return
	}

	chat := &models.Chat{
		UserID:              middleware.GetUserID(r.Context()),
		Title:               req.Title,
		ConversationHistory: req.ConversationHistory,
		LastGeneratedCode:   req.LastGeneratedCode,
	}

	if err := h.chatRepo.Create(r.Context(), chat); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create chat", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) Update(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return
	}

	var req models.UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title cannot be empty", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	chat, err := h.chatRepo.Update(r.Context(), userID, chatID, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update chat", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chat": chat})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.chatRepo.Delete(r.Context(), userID, chatID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chat not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete chat", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted"})
}
