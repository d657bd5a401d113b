package discord_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"animehub/internal/discord"
	"animehub/pkg/utils"
)

func newClient(baseURL string) *discord.Client {
	return discord.New(utils.DiscordConfig{
		BaseURL:  baseURL,
		BotToken: "test-token",
		Attempts: 3,
	})
}

func TestPostSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/c1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bot test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"id":"m1"}`))
	}))
	defer srv.Close()

	id, err := newClient(srv.URL).Post(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if id != "m1" {
		t.Fatalf("message id = %q, want m1", id)
	}
}

func TestPostRetriesAfterRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id":"m2"}`))
	}))
	defer srv.Close()

	start := time.Now()
	id, err := newClient(srv.URL).Post(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if id != "m2" {
		t.Fatalf("message id = %q, want m2", id)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("retry-after hint was not honored")
	}
}

func TestPostForbiddenIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Post(context.Background(), "c1", "hello")
	if !discord.IsPermanent(err) {
		t.Fatalf("expected a permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("permanent failures must not be retried, got %d calls", calls.Load())
	}
}

func TestPostNotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Post(context.Background(), "gone", "hello")
	if !discord.IsPermanent(err) {
		t.Fatalf("expected a permanent error, got %v", err)
	}
}

func TestPostRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"m3"}`))
	}))
	defer srv.Close()

	id, err := newClient(srv.URL).Post(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if id != "m3" || calls.Load() != 3 {
		t.Fatalf("id=%q calls=%d", id, calls.Load())
	}
}
