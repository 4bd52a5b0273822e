package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRerun(t *testing.T) {
	var got rerunRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/buildings/b1/rerun" {
			t.Errorf("request: got %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Token secret" {
			t.Errorf("Authorization: got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := New(server.URL, "secret")
	if err := client.Rerun(context.Background(), "b1"); err != nil {
		t.Fatalf("Rerun: %v", err)
	}
	if got.BuildingID != "b1" {
		t.Errorf("building_id: got %q", got.BuildingID)
	}
}

func TestRerunRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, "")
	client.backoff = time.Millisecond
	if err := client.Rerun(context.Background(), "b1"); err != nil {
		t.Fatalf("Rerun: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls: got %d, want 3", n)
	}
}

func TestRerunGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "")
	client.backoff = time.Millisecond
	if err := client.Rerun(context.Background(), "b1"); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != attempts {
		t.Errorf("calls: got %d, want %d", n, attempts)
	}
}
