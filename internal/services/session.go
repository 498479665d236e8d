package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"vbabrew-backend/internal/models"
)

// titlePrefixLength is how much of the originating prompt becomes the chat title.
const titlePrefixLength = 30

type generationGateway interface {
	Generate(ctx context.Context, messages []models.ChatMessage, apiKey string) (*models.GenerationResult, string, error)
}

type chatStore interface {
	Create(ctx context.Context, chat *models.Chat) error
	GetByID(ctx context.Context, ownerID, chatID uuid.UUID) (*models.Chat, error)
	Update(ctx context.Context, ownerID, chatID uuid.UUID, partial models.UpdateChatRequest) (*models.Chat, error)
}

// SessionManager drives one live conversation at a time. Each operation takes
// an explicit session value so concurrent sessions (multiple tabs, multiple
// users) stay independent; a single session must not submit a new prompt while
// a prior one is in flight — the manager is not reentrant-safe.
type SessionManager struct {
	gateway       generationGateway
	chats         chatStore
	defaultAPIKey string
}

func NewSessionManager(gateway generationGateway, chats chatStore, defaultAPIKey string) *SessionManager {
	return &SessionManager{
		gateway:       gateway,
		chats:         chats,
		defaultAPIKey: defaultAPIKey,
	}
}

// SubmitPrompt runs one turn: replay the full history plus the new prompt,
// append both sides of the exchange on success, then reconcile with the chat
// store when the caller is authenticated. A failed generation leaves the
// session exactly as it was.
func (m *SessionManager) SubmitPrompt(ctx context.Context, sess *models.SessionState, userID *uuid.UUID, prompt, apiKey string) (*models.GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, &ValidationError{Fields: map[string]string{"prompt": "Prompt is required"}}
	}

	key := apiKey
	if key == "" {
		key = m.defaultAPIKey
	}
	if key == "" {
		return nil, &ValidationError{Fields: map[string]string{"api_key": "A generation API key is required"}}
	}

	// Fixed system instruction + entire accumulated history + the new user
	// turn, in that order. No truncation.
	messages := make([]models.ChatMessage, 0, len(sess.ConversationHistory)+2)
	messages = append(messages, models.ChatMessage{Role: "system", Content: SystemPrompt})
	messages = append(messages, sess.ConversationHistory...)
	messages = append(messages, models.ChatMessage{Role: "user", Content: prompt})

	result, raw, err := m.gateway.Generate(ctx, messages, key)
	if err != nil {
		return nil, err
	}

	sess.ConversationHistory = append(sess.ConversationHistory,
		models.ChatMessage{Role: "user", Content: prompt},
		models.ChatMessage{Role: "assistant", Content: raw},
	)
	sess.LastGeneratedCode = result.Code

	if userID != nil {
		m.reconcile(ctx, sess, *userID, prompt)
	}

	return result, nil
}

// reconcile creates the chat on the session's first saved turn and updates it
// in place afterwards. The title is set once, from the originating prompt, and
// never touched again. Persistence failures do not void the generated turn;
// the session keeps accumulating client-side.
func (m *SessionManager) reconcile(ctx context.Context, sess *models.SessionState, userID uuid.UUID, prompt string) {
	if sess.ChatID == nil {
		chat := &models.Chat{
			UserID:              userID,
			Title:               deriveTitle(prompt),
			ConversationHistory: sess.ConversationHistory,
			LastGeneratedCode:   sess.LastGeneratedCode,
		}
		if err := m.chats.Create(ctx, chat); err != nil {
			log.Printf("WARNING: failed to create chat for user %s: %v", userID, err)
			return
		}
		id := chat.ID
		sess.ChatID = &id
		return
	}

	_, err := m.chats.Update(ctx, userID, *sess.ChatID, models.UpdateChatRequest{
		ConversationHistory: &sess.ConversationHistory,
		LastGeneratedCode:   &sess.LastGeneratedCode,
	})
	if err != nil {
		log.Printf("WARNING: failed to update chat %s: %v", *sess.ChatID, err)
	}
}

// LoadChat replaces the session wholesale with a persisted chat and binds its
// id. No merging with whatever was in the session before.
func (m *SessionManager) LoadChat(ctx context.Context, sess *models.SessionState, ownerID, chatID uuid.UUID) error {
	chat, err := m.chats.GetByID(ctx, ownerID, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: "Chat not found"}
		}
		return err
	}

	id := chat.ID
	sess.ChatID = &id
	sess.ConversationHistory = chat.ConversationHistory
	sess.LastGeneratedCode = chat.LastGeneratedCode
	return nil
}

// StartNew resets the session to empty. The previously bound chat stays in
// the store and remains loadable.
func (m *SessionManager) StartNew(sess *models.SessionState) {
	*sess = models.SessionState{ConversationHistory: []models.ChatMessage{}}
}

func deriveTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > titlePrefixLength {
		runes = runes[:titlePrefixLength]
	}
	return string(runes) + "..."
}
