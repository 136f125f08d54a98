package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"rockstar/internal/adapter/repo"
	"rockstar/internal/domain"
)

func TestWaitBlocksUntilTerminalAndNotifies(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/run/") {
			t.Fatalf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
		}
		if calls.Add(1) < 3 {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "running"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "succeeded",
			"outputs": []map[string]any{{"url": "https://nowhere.invalid/y.jpg"}},
		})
	}))
	defer upstream.Close()

	var recipients []string
	resend := newResendStub(t, &recipients)
	defer resend.Close()

	store := repo.NewRunStoreMem()
	if err := store.SaveRun(context.Background(), domain.Run{
		ID:       "abc123",
		Nombre:   "Ana",
		Apellido: "Diaz",
		Email:    "ana@example.com",
		Escena:   "guitarra",
	}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	app := newTestApp(store, upstream.URL, resend.URL)

	rec := httptest.NewRecorder()
	app.Wait(rec, httptest.NewRequest(http.MethodGet, "/api/wait?runId=abc123", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp waitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.StatusSuccess {
		t.Fatalf("status = %q, want success", resp.Status)
	}
	if resp.OutputURL == "" {
		t.Fatalf("output url missing")
	}
	if resp.TimedOut {
		t.Fatalf("watch should not time out")
	}
	if got := calls.Load(); got < 3 {
		t.Fatalf("upstream polled %d times, want at least 3", got)
	}
	sentToAna := 0
	for _, to := range recipients {
		if to == "ana@example.com" {
			sentToAna++
		}
	}
	if sentToAna != 1 {
		t.Fatalf("ana received %d emails, want 1", sentToAna)
	}
}

func TestWaitRequiresRunID(t *testing.T) {
	store := repo.NewRunStoreMem()
	app := newTestApp(store, "http://unused.invalid", "http://unused.invalid")

	rec := httptest.NewRecorder()
	app.Wait(rec, httptest.NewRequest(http.MethodGet, "/api/wait", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWaitReportsTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "running"})
	}))
	defer upstream.Close()

	store := repo.NewRunStoreMem()
	app := newTestApp(store, upstream.URL, "http://unused.invalid")

	rec := httptest.NewRecorder()
	app.Wait(rec, httptest.NewRequest(http.MethodGet, "/api/wait?runId=abc123", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp waitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.TimedOut {
		t.Fatalf("expected timed_out")
	}
	if resp.Status.Terminal() {
		t.Fatalf("status = %q, want non-terminal", resp.Status)
	}
}
