package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vyxenlabs/vyxen-runtime/internal/logging"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestScoreParsesStructuredReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Fatal("missing auth header")
		}
		chatReply(t, w, `Here you go: {"score": 0.8, "reply": "hello!", "risk": 0.1}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "model-x", time.Second, 0, logging.Nop())
	result, err := c.Score(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Score != 0.8 || result.Reply != "hello!" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestScoreClampsOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"score": 1.5, "reply": "x", "risk": -0.3}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", time.Second, 0, logging.Nop())
	result, err := c.Score(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Score != 1.0 || result.Risk != 0.0 {
		t.Fatalf("expected clamped result, got %+v", result)
	}
}

func TestScoreRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "backend down", http.StatusBadGateway)
			return
		}
		chatReply(t, w, `{"score": 0.6, "reply": "ok", "risk": 0.2}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", time.Second, 2, logging.Nop())
	c.backoff = time.Millisecond
	result, err := c.Score(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if result.Score != 0.6 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestScoreRetriesAreBounded(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", time.Second, 2, logging.Nop())
	c.backoff = time.Millisecond
	_, err := c.Score(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestScoreTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		chatReply(t, w, `{"score": 0.5, "reply": "late", "risk": 0}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", 20*time.Millisecond, 0, logging.Nop())
	_, err := c.Score(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestScoreBadRequestNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "m", time.Second, 3, logging.Nop())
	c.backoff = time.Millisecond
	if _, err := c.Score(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error on 400")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", got)
	}
}
