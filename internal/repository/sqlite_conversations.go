package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"velym/backend/internal/model"
)

func (r *sqliteRepository) CreateConversation(ctx context.Context, c *model.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		c.ID, c.UserID, c.Title, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	return err
}

// GetConversation returns ErrNotFound both for unknown ids and for
// conversations owned by another user.
func (r *sqliteRepository) GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?",
		conversationID, userID)
	var c model.Conversation
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) ListConversations(ctx context.Context, userID string) ([]model.ConversationSummary, error) {
	query := `
		SELECT c.id, c.user_id, c.title, c.created_at, c.updated_at,
		       COUNT(m.id), MAX(m.created_at)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.user_id = ?
		GROUP BY c.id
		ORDER BY c.updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	summaries := []model.ConversationSummary{}
	for rows.Next() {
		var s model.ConversationSummary
		var last sql.NullString
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt, &s.MessageCount, &last); err != nil {
			return nil, err
		}
		s.LastMessageTime = s.CreatedAt
		if last.Valid {
			t, err := parseTimestamp(last.String)
			if err != nil {
				return nil, err
			}
			s.LastMessageTime = t
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *sqliteRepository) UpdateConversationTitle(ctx context.Context, conversationID, userID, title string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		title, time.Now().UTC(), conversationID, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *sqliteRepository) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ? AND user_id = ?", conversationID, userID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *sqliteRepository) DeleteConversations(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM conversations WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddMessage inserts the message and touches the conversation's updated_at in
// one transaction. A reused message id yields ErrDuplicate.
func (r *sqliteRepository) AddMessage(ctx context.Context, m *model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO messages (id, conversation_id, content, is_user, created_at) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.ConversationID, m.Content, m.IsUser, m.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("could not insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx, "UPDATE conversations SET updated_at = ? WHERE id = ?", m.CreatedAt.UTC(), m.ConversationID)
	if err != nil {
		return fmt.Errorf("could not update conversation timestamp: %w", err)
	}

	return tx.Commit()
}

func (r *sqliteRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, content, is_user, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &m.IsUser, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *sqliteRepository) CountUserMessages(ctx context.Context, conversationID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND is_user = TRUE", conversationID).Scan(&n)
	return n, err
}
