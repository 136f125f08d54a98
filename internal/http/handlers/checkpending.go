package handlers

import "net/http"

// CheckPending runs one reconciliation sweep over the pending set. The
// route is guarded by middleware.CronAuth; reaching here means the caller
// presented the shared cron secret.
func (a *App) CheckPending(w http.ResponseWriter, r *http.Request) {
	if a.Cfg.ComfyAPIKey == "" {
		a.error(w, http.StatusInternalServerError, "server_misconfig", "COMFY_API_KEY is not configured")
		return
	}

	summary, err := a.Sweeper.Run(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("check-pending: sweep failed")
		a.error(w, http.StatusInternalServerError, "internal", "sweep failed")
		return
	}
	if summary.TotalChecked == 0 {
		a.json(w, http.StatusOK, map[string]string{"message": "No pending runs"})
		return
	}
	a.json(w, http.StatusOK, summary)
}
