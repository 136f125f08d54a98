package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rockstar/internal/adapter/repo"
	"rockstar/internal/comfy"
	"rockstar/internal/domain"
	"rockstar/internal/http/handlers"
	"rockstar/internal/infra"
	"rockstar/internal/mailer"
	"rockstar/internal/notify"
	"rockstar/internal/poll"
	"rockstar/internal/sweep"
)

type env struct {
	router     http.Handler
	store      *repo.RunStoreMem
	recipients *[]string
}

// newEnv wires a full stack against stub upstream servers: a generation API
// that queues abc123 and reports the given run state, and an email provider
// that records recipients.
func newEnv(t *testing.T, runState map[string]any) env {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/run/deployment/queue":
			_ = json.NewEncoder(w).Encode(map[string]string{"run_id": "abc123"})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/run/"):
			_ = json.NewEncoder(w).Encode(runState)
		default:
			t.Fatalf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
		}
	}))
	t.Cleanup(upstream.Close)

	recipients := &[]string{}
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			To []string `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		*recipients = append(*recipients, msg.To...)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "msg-1"})
	}))
	t.Cleanup(provider.Close)

	cfg := &infra.Config{
		ComfyAPIKey:       "comfy-key",
		ComfyBaseURL:      upstream.URL,
		ComfyDeploymentID: "dep-1",
		ResendAPIKey:      "resend-key",
		ResendBaseURL:     provider.URL,
		FromEmail:         "from@x",
		AdminEmail:        "admin@x",
		CronSecret:        "cron-secret",
	}
	logger := zerolog.Nop()
	store := repo.NewRunStoreMem()
	comfyClient := comfy.NewClient(comfy.Options{BaseURL: cfg.ComfyBaseURL, APIKey: cfg.ComfyAPIKey, DeploymentID: cfg.ComfyDeploymentID})
	mail := mailer.New(mailer.NewClient(mailer.Options{BaseURL: cfg.ResendBaseURL, APIKey: cfg.ResendAPIKey}), cfg.FromEmail, cfg.AdminEmail, logger)
	guard := notify.NewGuard(store, mail, logger)
	sweeper := sweep.New(store, comfyClient, guard, logger)
	watcher := poll.NewWatcher(comfyClient, guard, time.Millisecond, time.Second, logger)
	app := handlers.NewApp(cfg, store, comfyClient, mail, guard, sweeper, watcher, logger)

	router := NewRouter(app, Options{CronSecret: cfg.CronSecret})
	return env{router: router, store: store, recipients: recipients}
}

func TestSubmitThenSweepDeliversOnce(t *testing.T) {
	e := newEnv(t, map[string]any{
		"status":  "succeeded",
		"outputs": []map[string]any{{"url": "https://nowhere.invalid/y.jpg"}},
	})

	body := `{"nombre":"Ana","apellido":"Diaz","email":"ana@example.com","escena":"guitarra","imagen":"data:image/jpeg;base64,xx"}`
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var gen struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &gen); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if gen.RunID != "abc123" {
		t.Fatalf("run_id = %q", gen.RunID)
	}
	if _, err := e.store.GetRun(context.Background(), "abc123"); err != nil {
		t.Fatalf("run record missing: %v", err)
	}
	if !e.store.IsPending("abc123") {
		t.Fatalf("abc123 should be pending")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/check-pending", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary sweep.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summary.Completed) != 1 || summary.Completed[0] != "abc123" {
		t.Fatalf("completed = %v", summary.Completed)
	}
	if e.store.IsPending("abc123") {
		t.Fatalf("abc123 should have left the pending set")
	}
	if _, err := e.store.GetRun(context.Background(), "abc123"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("record should be deleted, got %v", err)
	}

	sentToAna := 0
	for _, to := range *e.recipients {
		if to == "ana@example.com" {
			sentToAna++
		}
	}
	if sentToAna != 1 {
		t.Fatalf("ana received %d emails, want 1", sentToAna)
	}

	// A second sweep finds nothing to do and sends nothing more.
	req = httptest.NewRequest(http.MethodGet, "/api/check-pending", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec = httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "No pending runs") {
		t.Fatalf("second sweep body = %s", rec.Body.String())
	}
}

func TestSweepRequiresCronSecret(t *testing.T) {
	e := newEnv(t, map[string]any{"status": "running"})

	body := `{"email":"ana@example.com","imagen":"x"}`
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d", rec.Code)
	}

	for _, header := range []string{"", "Bearer wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/check-pending", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec = httptest.NewRecorder()
		e.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("auth %q: status = %d, want 401", header, rec.Code)
		}
	}
	if !e.store.IsPending("abc123") {
		t.Fatalf("unauthorized sweep must not touch the pending set")
	}
	if len(*e.recipients) != 0 {
		t.Fatalf("unauthorized sweep must not send email")
	}
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
