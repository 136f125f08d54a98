package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rockstar/internal/adapter/repo"
	"rockstar/internal/domain"
)

// failingStore rejects every write so bookkeeping degradation paths can be
// exercised.
type failingStore struct{}

func (failingStore) SaveRun(context.Context, domain.Run) error { return errors.New("store down") }
func (failingStore) GetRun(context.Context, string) (domain.Run, error) {
	return domain.Run{}, errors.New("store down")
}
func (failingStore) PendingRuns(context.Context) ([]string, error) {
	return nil, errors.New("store down")
}
func (failingStore) RemovePending(context.Context, string) error { return errors.New("store down") }
func (failingStore) DeleteRun(context.Context, string) error     { return errors.New("store down") }
func (failingStore) MarkSent(context.Context, string) (bool, error) {
	return false, errors.New("store down")
}
func (failingStore) ClearSent(context.Context, string) error { return errors.New("store down") }

func newResendStub(t *testing.T, recipients *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			To []string `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		*recipients = append(*recipients, msg.To...)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-1"})
	}))
}

func TestPollTriggersEmailOnceOnSuccess(t *testing.T) {
	upstream := newComfyStub(t, "abc123", map[string]any{
		"status":  "succeeded",
		"outputs": []map[string]any{{"url": "https://nowhere.invalid/y.jpg"}},
	})
	defer upstream.Close()

	var recipients []string
	resend := newResendStub(t, &recipients)
	defer resend.Close()

	store := repo.NewRunStoreMem()
	app := newTestApp(store, upstream.URL, resend.URL)

	target := "/api/poll?runId=abc123&email=ana%40example.com&nombre=Ana&apellido=Diaz&escena=guitarra"

	rec := httptest.NewRecorder()
	app.Poll(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp pollResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.StatusSuccess {
		t.Fatalf("status = %q, want success", resp.Status)
	}
	if !resp.EmailSent || resp.EmailReason != "sent" {
		t.Fatalf("email trigger = (%v, %q)", resp.EmailSent, resp.EmailReason)
	}

	rec = httptest.NewRecorder()
	app.Poll(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EmailSent {
		t.Fatalf("second poll sent again")
	}
	if resp.EmailReason != "already sent for runId" {
		t.Fatalf("second poll reason = %q", resp.EmailReason)
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

func TestPollReportsReasonWithoutEmail(t *testing.T) {
	upstream := newComfyStub(t, "abc123", map[string]any{
		"status":  "succeeded",
		"outputs": []map[string]any{{"url": "https://x/y.jpg"}},
	})
	defer upstream.Close()

	store := repo.NewRunStoreMem()
	app := newTestApp(store, upstream.URL, "")

	rec := httptest.NewRecorder()
	app.Poll(rec, httptest.NewRequest(http.MethodGet, "/api/poll?runId=abc123", nil))

	var resp pollResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EmailSent {
		t.Fatalf("email should not trigger without recipient")
	}
	if resp.EmailReason != "missing email" {
		t.Fatalf("reason = %q", resp.EmailReason)
	}
}

func TestPollServerSendDisabled(t *testing.T) {
	upstream := newComfyStub(t, "abc123", map[string]any{
		"status":  "succeeded",
		"outputs": []map[string]any{{"url": "https://x/y.jpg"}},
	})
	defer upstream.Close()

	store := repo.NewRunStoreMem()
	app := newTestApp(store, upstream.URL, "")

	rec := httptest.NewRecorder()
	app.Poll(rec, httptest.NewRequest(http.MethodGet, "/api/poll?runId=abc123&email=a%40x&serverSend=0", nil))

	var resp pollResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EmailSent || resp.EmailReason != "serverSend disabled" {
		t.Fatalf("trigger = (%v, %q)", resp.EmailSent, resp.EmailReason)
	}
}

func TestPollRequiresRunID(t *testing.T) {
	store := repo.NewRunStoreMem()
	app := newTestApp(store, "http://unused.invalid", "")

	rec := httptest.NewRecorder()
	app.Poll(rec, httptest.NewRequest(http.MethodGet, "/api/poll", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPollRunningStatusPassesThrough(t *testing.T) {
	upstream := newComfyStub(t, "abc123", map[string]any{
		"status":      "running",
		"live_status": "executing node 4",
		"progress":    0.4,
	})
	defer upstream.Close()

	store := repo.NewRunStoreMem()
	app := newTestApp(store, upstream.URL, "")

	rec := httptest.NewRecorder()
	app.Poll(rec, httptest.NewRequest(http.MethodGet, "/api/poll?runId=abc123&email=a%40x", nil))

	var resp pollResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != domain.StatusRunning {
		t.Fatalf("status = %q, want running", resp.Status)
	}
	if resp.EmailReason != "status=running" {
		t.Fatalf("reason = %q", resp.EmailReason)
	}
}
