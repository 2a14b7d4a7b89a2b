package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/llm"
	"velym/backend/internal/model"
	"velym/backend/internal/realtime"
	"velym/backend/internal/repository"
)

// MaxMessageLength caps the size of a single user message in runes.
const MaxMessageLength = 4000

type ChatService struct {
	repo   repository.ConversationRepository
	llm    llm.Provider
	events realtime.Publisher
	now    func() time.Time
}

func NewChatService(repo repository.ConversationRepository, provider llm.Provider, events realtime.Publisher) *ChatService {
	return &ChatService{repo: repo, llm: provider, events: events, now: time.Now}
}

func messageScope(conversationID string) map[string]string {
	return map[string]string{"conversation_id": conversationID}
}

func conversationScope(userID string) map[string]string {
	return map[string]string{"user_id": userID}
}

// CreateConversation starts a conversation with the assistant's welcome
// message.
func (s *ChatService) CreateConversation(ctx context.Context, userID string) (*model.FullConversation, error) {
	now := s.now().UTC()
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     model.DefaultConversationTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("%w: could not create conversation: %v", app_errors.ErrSaveFailed, err)
	}
	publishChange(ctx, s.events, realtime.TableConversations, realtime.Insert, userID, conversationScope(userID), conv)

	welcome := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Content:        model.WelcomeMessage,
		IsUser:         false,
		CreatedAt:      now,
	}
	if err := s.repo.AddMessage(ctx, welcome); err != nil {
		slog.Error("Failed to add welcome message", "conversation_id", conv.ID, "error", err)
		return &model.FullConversation{Conversation: *conv, Messages: []model.Message{}}, nil
	}
	publishChange(ctx, s.events, realtime.TableMessages, realtime.Insert, userID, messageScope(conv.ID), welcome)

	slog.Info("Conversation created", "conversation_id", conv.ID, "user_id", userID)
	return &model.FullConversation{Conversation: *conv, Messages: []model.Message{*welcome}}, nil
}

// GetConversation returns the conversation if it exists and belongs to
// userID. Both other cases are reported as ErrNotFound.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, app_errors.ErrNotFound
		}
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}
	return conv, nil
}

// GetFullConversation returns the conversation with its messages in
// chronological order.
func (s *ChatService) GetFullConversation(ctx context.Context, userID, conversationID string) (*model.FullConversation, error) {
	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullConversation{Conversation: *conv, Messages: messages}, nil
}

// ListMessages returns the messages of an owned conversation.
func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID string) ([]model.Message, error) {
	full, err := s.GetFullConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return full.Messages, nil
}

// ListConversations returns the user's conversations, most recently updated
// first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]model.ConversationSummary, error) {
	return s.repo.ListConversations(ctx, userID)
}

// SendMessage stores the user's message and then asks the assistant for a
// reply. If storing fails nothing is written and the error wraps
// ErrSaveFailed. If the reply fails the user message stays stored and the
// error wraps ErrCompletion.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID string, req model.SendMessageRequest) (*model.SendResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", app_errors.ErrValidation)
	}
	if len([]rune(content)) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message is longer than %d characters", app_errors.ErrValidation, MaxMessageLength)
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: message id must be a uuid", app_errors.ErrValidation)
	}

	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	priorUserMessages, err := s.repo.CountUserMessages(ctx, conv.ID)
	if err != nil {
		slog.Warn("Could not count user messages, skipping title update", "conversation_id", conv.ID, "error", err)
		priorUserMessages = -1
	}

	userMessage := &model.Message{
		ID:             id,
		ConversationID: conv.ID,
		Content:        content,
		IsUser:         true,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.AddMessage(ctx, userMessage); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: message %s already exists", app_errors.ErrConflict, id)
		}
		slog.Error("Failed to save user message", "conversation_id", conv.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", app_errors.ErrSaveFailed, err)
	}
	publishChange(ctx, s.events, realtime.TableMessages, realtime.Insert, userID, messageScope(conv.ID), userMessage)

	if priorUserMessages == 0 {
		go s.deriveTitle(context.Background(), userID, conv.ID, content)
	}

	reply, err := s.llm.Complete(ctx, content)
	if err != nil {
		slog.Error("Failed to generate assistant reply", "conversation_id", conv.ID, "error", err)
		return &model.SendResult{UserMessage: userMessage}, fmt.Errorf("%w: %v", app_errors.ErrCompletion, err)
	}

	assistantMessage := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Content:        reply,
		IsUser:         false,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.repo.AddMessage(ctx, assistantMessage); err != nil {
		slog.Error("Failed to save assistant message", "conversation_id", conv.ID, "error", err)
		return &model.SendResult{UserMessage: userMessage}, fmt.Errorf("%w: could not save reply: %v", app_errors.ErrCompletion, err)
	}
	publishChange(ctx, s.events, realtime.TableMessages, realtime.Insert, userID, messageScope(conv.ID), assistantMessage)

	return &model.SendResult{UserMessage: userMessage, AssistantMessage: assistantMessage}, nil
}

// deriveTitle renames the conversation after its first user message. It runs
// detached from the request; failures are only logged.
func (s *ChatService) deriveTitle(ctx context.Context, userID, conversationID, firstMessage string) {
	title := model.DeriveTitle(firstMessage)
	if err := s.repo.UpdateConversationTitle(ctx, conversationID, userID, title); err != nil {
		slog.Warn("Failed to update conversation title", "conversation_id", conversationID, "error", err)
		return
	}
	publishChange(ctx, s.events, realtime.TableConversations, realtime.Update, userID, conversationScope(userID),
		map[string]string{"id": conversationID, "title": title})
	slog.Debug("Conversation title updated", "conversation_id", conversationID, "title", title)
}

// DeleteConversation removes one owned conversation and its messages.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if err := s.repo.DeleteConversation(ctx, conversationID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return app_errors.ErrNotFound
		}
		return fmt.Errorf("could not delete conversation: %w", err)
	}
	publishChange(ctx, s.events, realtime.TableConversations, realtime.Delete, userID, conversationScope(userID),
		map[string]string{"id": conversationID})
	slog.Info("Conversation deleted", "conversation_id", conversationID, "user_id", userID)
	return nil
}

// ClearConversations removes all of the user's conversations.
func (s *ChatService) ClearConversations(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.DeleteConversations(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("could not clear conversations: %w", err)
	}
	publishChange(ctx, s.events, realtime.TableConversations, realtime.Delete, userID, conversationScope(userID),
		map[string]any{"deleted": n})
	slog.Info("Conversations cleared", "user_id", userID, "deleted", n)
	return n, nil
}
