package handlers

import (
	"fmt"
	"net/http"

	"rockstar/internal/comfy"
	"rockstar/internal/domain"
	"rockstar/internal/notify"
)

type pollResponse struct {
	LiveStatus    string         `json:"live_status,omitempty"`
	Status        domain.Status  `json:"status"`
	Outputs       []comfy.Output `json:"outputs,omitempty"`
	Progress      float64        `json:"progress,omitempty"`
	QueuePosition *int           `json:"queue_position,omitempty"`
	RawStatus     string         `json:"_raw_status,omitempty"`
	ServerSend    bool           `json:"_server_send"`
	EmailSent     bool           `json:"_email_triggered"`
	EmailReason   string         `json:"_email_reason,omitempty"`
}

// Poll reports one normalized status snapshot for the interactive loop and,
// on the first observed success, triggers the notification server-side so
// the email goes out even when the requester closes the tab right after.
// serverSend=0 disables the trigger for debugging.
func (a *App) Poll(w http.ResponseWriter, r *http.Request) {
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

	state, err := a.Comfy.GetRun(r.Context(), runID)
	if err != nil {
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("poll: status fetch failed")
		a.error(w, http.StatusBadGateway, "upstream", "failed to fetch run status")
		return
	}

	status, outputURL := comfy.Normalize(state)
	email := q.Get("email")
	serverSend := q.Get("serverSend") != "0"

	resp := pollResponse{
		LiveStatus:    state.LiveStatus,
		Status:        status,
		Outputs:       state.Outputs,
		Progress:      state.Progress,
		QueuePosition: state.QueuePosition,
		RawStatus:     state.Status,
		ServerSend:    serverSend,
	}

	switch {
	case !serverSend:
		resp.EmailReason = "serverSend disabled"
	case status != domain.StatusSuccess:
		resp.EmailReason = fmt.Sprintf("status=%s", status)
	case outputURL == "":
		resp.EmailReason = "no output url"
	case email == "":
		resp.EmailReason = "missing email"
	default:
		resp.EmailSent, resp.EmailReason = a.Guard.Attempt(r.Context(), runID, outputURL, email, notify.Meta{
			UserName: q.Get("userName"),
			Nombre:   q.Get("nombre"),
			Apellido: q.Get("apellido"),
			Escena:   q.Get("escena"),
		})
	}

	a.json(w, http.StatusOK, resp)
}
