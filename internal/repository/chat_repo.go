package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vbabrew-backend/internal/models"
)

// ChatRepo persists conversations keyed by (owner, chat id). Every query
// filters on user_id up front: a chat owned by someone else is
// indistinguishable from one that does not exist.
type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, chat *models.Chat) error {
	chat.ID = uuid.New()
	if chat.ConversationHistory == nil {
		chat.ConversationHistory = []models.ChatMessage{}
	}

	query := `INSERT INTO chats (id, user_id, title, conversation_history, last_generated_code)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		chat.ID, chat.UserID, chat.Title, chat.ConversationHistory, chat.LastGeneratedCode,
	).Scan(&chat.CreatedAt, &chat.UpdatedAt)
}

func (r *ChatRepo) GetByID(ctx context.Context, ownerID, chatID uuid.UUID) (*models.Chat, error) {
	chat := &models.Chat{}
	query := `SELECT id, user_id, title, conversation_history, last_generated_code, created_at, updated_at
		FROM chats WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, chatID, ownerID).Scan(
		&chat.ID, &chat.UserID, &chat.Title, &chat.ConversationHistory,
		&chat.LastGeneratedCode, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *ChatRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChatSummary, error) {
	query := `SELECT id, title, updated_at FROM chats WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := make([]models.ChatSummary, 0)
	for rows.Next() {
		var c models.ChatSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}

	return chats, rows.Err()
}

// Update replaces only the supplied fields and always refreshes updated_at.
// An empty partial still bumps updated_at. Returns the stored row so callers
// see the post-update state.
func (r *ChatRepo) Update(ctx context.Context, ownerID, chatID uuid.UUID, partial models.UpdateChatRequest) (*models.Chat, error) {
	set := "updated_at = NOW()"
	args := []interface{}{chatID, ownerID}
	argIdx := 3

	if partial.Title != nil {
		set += fmt.Sprintf(", title = $%d", argIdx)
		args = append(args, *partial.Title)
		argIdx++
	}
	if partial.ConversationHistory != nil {
		set += fmt.Sprintf(", conversation_history = $%d", argIdx)
		args = append(args, *partial.ConversationHistory)
		argIdx++
	}
	if partial.LastGeneratedCode != nil {
		set += fmt.Sprintf(", last_generated_code = $%d", argIdx)
		args = append(args, *partial.LastGeneratedCode)
		argIdx++
	}

	query := fmt.Sprintf(`UPDATE chats SET %s WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, conversation_history, last_generated_code, created_at, updated_at`, set)

	chat := &models.Chat{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&chat.ID, &chat.UserID, &chat.Title, &chat.ConversationHistory,
		&chat.LastGeneratedCode, &chat.CreatedAt, &chat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *ChatRepo) Delete(ctx context.Context, ownerID, chatID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chats WHERE id = $1 AND user_id = $2", chatID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
