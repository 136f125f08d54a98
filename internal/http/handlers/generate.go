package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rockstar/internal/comfy"
	"rockstar/internal/domain"
	"rockstar/internal/middleware"
	"rockstar/internal/scene"
)

type generateRequest struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Email    string `json:"email"`
	Escena   string `json:"escena"`
	Imagen   string `json:"imagen"`
}

type generateResponse struct {
	RunID string `json:"run_id"`
}

// Generate accepts a form submission, queues a run with the generation
// service and records the run for later reconciliation. Bookkeeping is
// best-effort: once the run is accepted upstream the caller gets its id even
// if the store write fails, at the cost of the sweep missing that run.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Imagen == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "missing 'imagen' in payload")
		return
	}
	if a.Cfg.ComfyAPIKey == "" {
		a.error(w, http.StatusInternalServerError, "server_misconfig", "COMFY_API_KEY is not configured")
		return
	}

	folded, knownScene := scene.Normalize(req.Escena)
	if !knownScene && folded != "" {
		a.Logger.Warn().Str("escena", req.Escena).Msg("generate: unknown scene, forwarding as-is")
	}

	runID, err := a.Comfy.QueueDeployment(r.Context(), comfy.Inputs{
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		Imagen:   req.Imagen,
		Escena:   folded,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConfiguration):
			a.error(w, http.StatusInternalServerError, "server_misconfig", "generation service credential unavailable")
		case errors.Is(err, domain.ErrUpstreamProtocol):
			a.error(w, http.StatusBadGateway, "upstream_protocol", "generation service response missing run_id")
		default:
			a.Logger.Error().Err(err).Msg("generate: queue failed")
			a.error(w, http.StatusBadGateway, "upstream", "failed to queue generation run")
		}
		return
	}

	if err := a.Store.SaveRun(r.Context(), domain.Run{
		ID:        runID,
		Nombre:    req.Nombre,
		Apellido:  req.Apellido,
		Email:     req.Email,
		Escena:    folded,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		// The run is already accepted upstream; losing tracking is better
		// than failing the submission.
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("generate: failed to record pending run")
	}

	a.Logger.Info().
		Str("run_id", runID).
		Str("escena", folded).
		Str("country", middleware.CountryFromContext(r.Context())).
		Msg("generate: run queued")

	a.json(w, http.StatusOK, generateResponse{RunID: runID})
}
