package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotifier_PostsPayload(t *testing.T) {
	got := make(chan ntfyPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p ntfyPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		got <- p
	}))
	defer srv.Close()

	NewNotifier(srv.URL).Notify(context.Background(), "New Anonymous Question", "hello")

	p := <-got
	if p.Title != "New Anonymous Question" || p.Message != "hello" || p.Priority != "high" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if len(p.Tags) != 1 || p.Tags[0] != "question" {
		t.Fatalf("unexpected tags: %v", p.Tags)
	}
}

func TestNotifier_DisabledAndFailingAreSilent(t *testing.T) {
	NewNotifier("").Notify(context.Background(), "t", "m")

	var nilNotifier *Notifier
	nilNotifier.Notify(context.Background(), "t", "m")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	NewNotifier(srv.URL).Notify(context.Background(), "t", "m")
}
