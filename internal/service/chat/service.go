package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pocketchat-app/pocketchat/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrReplyPending    = errors.New("a reply is already pending for this session")
	ErrAIUnavailable   = errors.New("ai service unavailable")
)

// Replier produces the assistant answer for a single user utterance.
type Replier interface {
	GenerateReply(ctx context.Context, userMessage string) (string, error)
}

// Service encapsulates conversation state management: message history and
// the in-flight reply bookkeeping per session. It owns the asynchronous
// replier call; observers only read state or wait on a Receipt.
type Service struct {
	replier Replier

	mu       sync.RWMutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	pending  map[string]bool
	lastErr  map[string]string
}

// NewService bootstraps the in-memory conversation service. A nil replier
// leaves submissions rejected with ErrAIUnavailable.
func NewService(replier Replier) *Service {
	return &Service{
		replier:  replier,
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		pending:  make(map[string]bool),
		lastErr:  make(map[string]string),
	}
}

// CreateSession provisions an anonymous conversation.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// Receipt tracks a single accepted submission until its reply resolves.
type Receipt struct {
	UserMessage chat.Message

	done  chan struct{}
	reply chat.Message
	err   error
}

// Wait blocks until the submission resolves or ctx is done. It returns the
// appended assistant message, or the error the completion failed with.
func (r *Receipt) Wait(ctx context.Context) (chat.Message, error) {
	select {
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	case <-r.done:
		return r.reply, r.err
	}
}

// Submit appends the user's message and asks the replier for the assistant
// answer in the background. Blank input is ignored (nil receipt, nil error).
// While a reply is in flight further submissions are rejected with
// ErrReplyPending.
func (s *Service) Submit(ctx context.Context, sessionID, content string) (*Receipt, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}

	if s.replier == nil {
		return nil, ErrAIUnavailable
	}

	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if s.pending[sessionID] {
		s.mu.Unlock()
		return nil, ErrReplyPending
	}

	userMsg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    chat.RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], userMsg)
	s.pending[sessionID] = true
	s.lastErr[sessionID] = ""
	s.mu.Unlock()

	receipt := &Receipt{UserMessage: userMsg, done: make(chan struct{})}

	// The reply keeps generating even when the submitting request goes away.
	go s.resolve(context.WithoutCancel(ctx), sessionID, content, receipt)

	return receipt, nil
}

func (s *Service) resolve(ctx context.Context, sessionID, content string, receipt *Receipt) {
	reply, err := s.replier.GenerateReply(ctx, content)

	s.mu.Lock()
	s.pending[sessionID] = false
	if err != nil {
		s.lastErr[sessionID] = err.Error()
		s.mu.Unlock()

		receipt.err = err
		close(receipt.done)
		log.Printf("[chat] reply failed session=%s: %v", sessionID, err)
		return
	}

	assistantMsg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    chat.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], assistantMsg)
	s.mu.Unlock()

	receipt.reply = assistantMsg
	close(receipt.done)
	log.Printf("[chat] reply appended session=%s length=%d", sessionID, len(reply))
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Status reports whether a reply is in flight plus the last submission
// failure, if any.
func (s *Service) Status(_ context.Context, sessionID string) (chat.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return chat.Status{}, ErrSessionNotFound
	}
	return chat.Status{Pending: s.pending[sessionID], LastError: s.lastErr[sessionID]}, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
