package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a single turn in a conversation. Ordering is append-only and
// significant: the full sequence is replayed verbatim as provider context.
type ChatMessage struct {
	Role    string `json:"role"` // "system" | "user" | "assistant"
	Content string `json:"content"`
}

// Chat is a persisted conversation owned by a single user.
type Chat struct {
	ID                  uuid.UUID     `json:"id"`
	UserID              uuid.UUID     `json:"owner_id"`
	Title               string        `json:"title"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
	LastGeneratedCode   string        `json:"lastGeneratedCode"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// ChatSummary is the sidebar list view: no history payload.
type ChatSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateChatRequest struct {
	Title               string        `json:"title"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
	LastGeneratedCode   string        `json:"lastGeneratedCode"`
}

// UpdateChatRequest carries a partial update: nil fields are left untouched.
type UpdateChatRequest struct {
	Title               *string        `json:"title"`
	ConversationHistory *[]ChatMessage `json:"conversationHistory"`
	LastGeneratedCode   *string        `json:"lastGeneratedCode"`
}
