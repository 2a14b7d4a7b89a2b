package model

import (
	"time"
)

// DefaultConversationTitle is the title a conversation carries until its
// first user message arrives.
const DefaultConversationTitle = "New Health Conversation"

// WelcomeMessage is the assistant message inserted into every new conversation.
const WelcomeMessage = "Hello! I'm your Velym AI assistant. I'm here to help you with health-related questions, " +
	"fitness advice, nutrition guidance, and wellness tips. What would you like to know about today?"

// Conversation stores metadata about a chat thread owned by a single user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message stores a single immutable message in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	IsUser         bool      `json:"is_user"`
	CreatedAt      time.Time `json:"created_at"`
}

// FullConversation includes the conversation metadata and all its messages
// in chronological order.
type FullConversation struct {
	Conversation
	Messages []Message `json:"messages"`
}

// SendMessageRequest is a new user message. ID is optional; clients that
// display the message before it is stored send their own id so the change
// notification for it can be matched.
type SendMessageRequest struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

// SendResult holds the stored user message and the assistant reply.
type SendResult struct {
	UserMessage      *Message `json:"user_message"`
	AssistantMessage *Message `json:"assistant_message"`
}

// ConversationSummary is a conversation row as shown in the history list.
type ConversationSummary struct {
	Conversation
	MessageCount    int       `json:"message_count"`
	LastMessageTime time.Time `json:"last_message_time"`
}

// DeriveTitle turns the first user message of a conversation into its title.
// Messages of up to 50 characters are kept verbatim, longer ones are cut to
// 47 characters followed by "...".
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= 50 {
		return content
	}
	return string(runes[:47]) + "..."
}
