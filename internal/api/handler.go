package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	app_errors "velym/backend/internal/errors"
	"velym/backend/internal/interfaces"
	"velym/backend/internal/model"
)

// SendMessageRequest is the DTO for a new user message. Clients that render
// the message before it is stored send their own uuid as ID.
type SendMessageRequest struct {
	ID      string `json:"id,omitempty" validate:"omitempty,uuid" example:"0b7f6f5e-3c1a-4c9e-9a53-1f7f1f0f6a11"`
	Content string `json:"content" validate:"required,max=4000" example:"How much sleep do I need?"`
}

// SendMessageResponse carries both stored messages. On an AI failure the
// user message is stored and Error is set.
type SendMessageResponse struct {
	*model.SendResult
	Error string `json:"error,omitempty"`
}

type ChatHandler struct {
	service interfaces.ChatService
}

func NewChatHandler(svc interfaces.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// ListConversations godoc
// @Summary      List conversations
// @Description  Returns the user's conversations with message counts, most recently updated first.
// @Tags         Chat
// @Produce      json
// @Success      200  {array}   model.ConversationSummary
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations [get]
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	convs, err := h.service.ListConversations(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, convs)
}

// CreateConversation godoc
// @Summary      Start a conversation
// @Tags         Chat
// @Produce      json
// @Success      201  {object}  model.FullConversation
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations [post]
func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	full, err := h.service.CreateConversation(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, full)
}

// GetConversation godoc
// @Summary      Get a conversation with its messages
// @Tags         Chat
// @Produce      json
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {object}  model.FullConversation
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	full, err := h.service.GetFullConversation(r.Context(), id.UserID, chi.URLParam(r, "conversationID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, full)
}

// ListMessages godoc
// @Summary      List the messages of a conversation
// @Tags         Chat
// @Produce      json
// @Param        conversationID  path      string  true  "Conversation ID"
// @Success      200             {array}   model.Message
// @Failure      404             {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID}/messages [get]
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	msgs, err := h.service.ListMessages(r.Context(), id.UserID, chi.URLParam(r, "conversationID"))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, msgs)
}

// SendMessage godoc
// @Summary      Send a message and get the assistant reply
// @Description  Stores the user message, then asks the AI for a reply. When the AI fails the user message stays stored and the response is 502 with the stored message included.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        conversationID  path      string              true  "Conversation ID"
// @Param        request         body      SendMessageRequest  true  "Message"
// @Success      201             {object}  SendMessageResponse
// @Failure      400             {object}  ErrorResponse
// @Failure      404             {object}  ErrorResponse
// @Failure      409             {object}  ErrorResponse
// @Failure      500             {object}  ErrorResponse
// @Failure      502             {object}  SendMessageResponse
// @Router       /v1/conversations/{conversationID}/messages [post]
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	res, err := h.service.SendMessage(r.Context(), id.UserID, chi.URLParam(r, "conversationID"),
		model.SendMessageRequest{ID: req.ID, Content: req.Content})
	if err != nil {
		if errors.Is(err, app_errors.ErrCompletion) && res != nil {
			respondWithJSON(w, http.StatusBadGateway, SendMessageResponse{
				SendResult: res,
				Error:      "Failed to generate AI response. Please try again.",
			})
			return
		}
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, SendMessageResponse{SendResult: res})
}

// DeleteConversation godoc
// @Summary      Delete a conversation
// @Tags         Chat
// @Param        conversationID  path  string  true  "Conversation ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [delete]
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteConversation(r.Context(), id.UserID, chi.URLParam(r, "conversationID")); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearConversations godoc
// @Summary      Delete all conversations
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  DeletedResponse
// @Router       /v1/conversations [delete]
func (h *ChatHandler) ClearConversations(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(w, r)
	if !ok {
		return
	}
	n, err := h.service.ClearConversations(r.Context(), id.UserID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, DeletedResponse{Deleted: n})
}
