package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chatservice "github.com/pocketchat-app/pocketchat/backend/internal/service/chat"
)

type stubReplier struct {
	reply   string
	err     error
	release chan struct{}
}

func (s *stubReplier) GenerateReply(ctx context.Context, userMessage string) (string, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func decodeEvents(t *testing.T, body string) []StreamResponse {
	t.Helper()

	var events []StreamResponse
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event StreamResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, event)
	}
	return events
}

func TestHandleStreamRequestLifecycle(t *testing.T) {
	svc := chatservice.NewService(&stubReplier{reply: "streamed reply"})
	session, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := httptest.NewRecorder()
	handler := New(svc)
	if err := handler.HandleStreamRequest(context.Background(), rec, session.ID, "hello"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", got)
	}

	events := decodeEvents(t, rec.Body.String())
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Event != "start" || events[0].SessionID != session.ID || events[0].MessageID == "" {
		t.Fatalf("unexpected start event: %+v", events[0])
	}
	if events[1].Event != "message" || events[1].Content != "streamed reply" {
		t.Fatalf("unexpected message event: %+v", events[1])
	}
	if events[2].Event != "end" || !events[2].Finished {
		t.Fatalf("unexpected end event: %+v", events[2])
	}
}

func TestHandleStreamRequestReplyFailure(t *testing.T) {
	svc := chatservice.NewService(&stubReplier{err: errors.New("boom")})
	session, _ := svc.CreateSession(context.Background())

	rec := httptest.NewRecorder()
	if err := New(svc).HandleStreamRequest(context.Background(), rec, session.ID, "hello"); err == nil {
		t.Fatal("expected error from failed generation")
	}

	events := decodeEvents(t, rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("expected start and error events, got %+v", events)
	}
	if events[1].Event != "error" || !strings.Contains(events[1].Error, "boom") {
		t.Fatalf("unexpected error event: %+v", events[1])
	}
}

func TestHandleStreamRequestUnknownSession(t *testing.T) {
	svc := chatservice.NewService(&stubReplier{reply: "ok"})

	rec := httptest.NewRecorder()
	if err := New(svc).HandleStreamRequest(context.Background(), rec, "missing", "hello"); err == nil {
		t.Fatal("expected error for unknown session")
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleStreamRequestBlankMessage(t *testing.T) {
	svc := chatservice.NewService(&stubReplier{reply: "ok"})
	session, _ := svc.CreateSession(context.Background())

	rec := httptest.NewRecorder()
	if err := New(svc).HandleStreamRequest(context.Background(), rec, session.ID, "   "); err == nil {
		t.Fatal("expected error for blank message")
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleStreamRequestWhilePending(t *testing.T) {
	release := make(chan struct{})
	svc := chatservice.NewService(&stubReplier{reply: "late", release: release})
	session, _ := svc.CreateSession(context.Background())

	receipt, err := svc.Submit(context.Background(), session.ID, "first")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}
	defer func() {
		close(release)
		receipt.Wait(context.Background())
	}()

	rec := httptest.NewRecorder()
	if err := New(svc).HandleStreamRequest(context.Background(), rec, session.ID, "second"); err == nil {
		t.Fatal("expected error while a reply is pending")
	}

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
