package handlers

import (
	"errors"
	"net/http"

	"rockstar/internal/domain"
	"rockstar/internal/poll"
)

type waitResponse struct {
	RunID      string        `json:"run_id"`
	Status     domain.Status `json:"status"`
	LiveStatus string        `json:"live_status,omitempty"`
	OutputURL  string        `json:"output_url,omitempty"`
	TimedOut   bool          `json:"timed_out,omitempty"`
}

// Wait blocks until the run reaches a terminal state or the watch bound
// elapses. It is the long-poll alternative to the Poll snapshot endpoint:
// one request instead of an interval loop, with the same server-side
// notification on first success. Stored submission fields drive the email;
// query parameters fill in for runs the store never saw.
func (a *App) Wait(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	runID := q.Get("runId")
	if runID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "missing runId")
		return
	}
	if a.Cfg.ComfyAPIKey == "" {
		a.error(w, http.StatusInternalServerError, "server_misconfig", "COMFY_API_KEY is not configured")
		return
	}

	meta := poll.Meta{
		Email:    q.Get("email"),
		UserName: q.Get("userName"),
		Nombre:   q.Get("nombre"),
		Apellido: q.Get("apellido"),
		Escena:   q.Get("escena"),
	}
	if rec, err := a.Store.GetRun(r.Context(), runID); err == nil {
		meta.Email = rec.Email
		meta.Nombre = rec.Nombre
		meta.Apellido = rec.Apellido
		meta.Escena = rec.Escena
	} else if !errors.Is(err, domain.ErrNotFound) {
		a.Logger.Warn().Err(err).Str("run_id", runID).Msg("wait: store lookup failed")
	}

	last, err := a.Watcher.Watch(r.Context(), runID, meta, nil)
	if err != nil && !errors.Is(err, poll.ErrWatchTimeout) {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, "bad_request", "missing runId")
			return
		}
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("wait: watch aborted")
		a.error(w, http.StatusBadGateway, "upstream", "watch aborted")
		return
	}

	a.json(w, http.StatusOK, waitResponse{
		RunID:      runID,
		Status:     last.Status,
		LiveStatus: last.LiveStatus,
		OutputURL:  last.OutputURL,
		TimedOut:   errors.Is(err, poll.ErrWatchTimeout),
	})
}
