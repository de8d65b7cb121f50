package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	chatservice "github.com/pocketchat-app/pocketchat/backend/internal/service/chat"
	"github.com/pocketchat-app/pocketchat/backend/pkg/utils"
)

// Handler pushes the reply lifecycle to the client via Server-Sent Events
type Handler struct {
	chatSvc *chatservice.Service
}

// New creates a new stream handler
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest queues a user message and streams the reply for a chat session
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	// Queue before switching to SSE so submission failures still map to plain HTTP statuses.
	receipt, err := h.chatSvc.Submit(ctx, sessionID, userMessage)
	if err != nil {
		utils.RespondError(w, submitStatus(err), err.Error())
		return err
	}
	if receipt == nil {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return fmt.Errorf("message is required")
	}

	utils.SetupSSEHeaders(w)

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		MessageID: receipt.UserMessage.ID,
	})

	reply, err := receipt.Wait(ctx)
	if err != nil {
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event: "error",
			Error: fmt.Sprintf("AI generation failed: %v", err),
		})
		return err
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		MessageID: reply.ID,
		Content:   reply.Content,
	})

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s", sessionID)
	return nil
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatservice.ErrReplyPending):
		return http.StatusConflict
	case errors.Is(err, chatservice.ErrAIUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
