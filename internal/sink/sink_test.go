package sink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trade-logger/internal/config"
)

func TestSend_Success(t *testing.T) {
	var gotBody string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := New(config.CollectorConfig{URL: server.URL, Timeout: time.Second}, nil)
	outcome := s.Send(context.Background(), []byte(`{"action":"Buy"}`))

	if !outcome.Success {
		t.Fatalf("expected success, got %+v", outcome)
	}
	if outcome.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", outcome.StatusCode)
	}
	if gotBody != `{"action":"Buy"}` {
		t.Errorf("body = %s", gotBody)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %s", gotContentType)
	}
}

func TestSend_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	s := New(config.CollectorConfig{URL: server.URL, Timeout: time.Second}, nil)
	outcome := s.Send(context.Background(), []byte(`{}`))

	if outcome.Success {
		t.Fatalf("expected failure, got %+v", outcome)
	}
	if outcome.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", outcome.StatusCode)
	}
	if outcome.Reason == "" {
		t.Errorf("expected a failure reason")
	}
}

func TestSend_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	s := New(config.CollectorConfig{URL: server.URL, Timeout: time.Second}, nil)
	outcome := s.Send(context.Background(), []byte(`{}`))

	if outcome.Success {
		t.Fatalf("expected failure on closed server, got %+v", outcome)
	}
	if outcome.StatusCode != 0 {
		t.Errorf("transport errors carry no status code, got %d", outcome.StatusCode)
	}
	if outcome.Reason == "" {
		t.Errorf("expected a failure reason")
	}
}

func TestSend_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read can observe the
		// client disconnect and cancel r.Context(); otherwise the handler
		// never unblocks and the deferred Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	s := New(config.CollectorConfig{URL: server.URL, Timeout: 10 * time.Second}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	outcome := s.Send(ctx, []byte(`{}`))
	if outcome.Success {
		t.Fatalf("expected failure on cancelled context, got %+v", outcome)
	}
}
