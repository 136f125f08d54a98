package handlers

import (
	"encoding/json"
	"net/http"

	"rockstar/internal/comfy"
	"rockstar/internal/domain"
	"rockstar/internal/infra"
	"rockstar/internal/mailer"
	"rockstar/internal/notify"
	"rockstar/internal/poll"
	"rockstar/internal/sweep"
)

// App bundles the collaborators the HTTP handlers need.
type App struct {
	Cfg     *infra.Config
	Store   domain.RunStore
	Comfy   *comfy.Client
	Mailer  *mailer.Mailer
	Guard   *notify.Guard
	Sweeper *sweep.Sweeper
	Watcher *poll.Watcher
	Logger  infra.Logger
}

func NewApp(cfg *infra.Config, store domain.RunStore, client *comfy.Client, m *mailer.Mailer, guard *notify.Guard, sweeper *sweep.Sweeper, watcher *poll.Watcher, logger infra.Logger) *App {
	return &App{
		Cfg:     cfg,
		Store:   store,
		Comfy:   client,
		Mailer:  m,
		Guard:   guard,
		Sweeper: sweeper,
		Watcher: watcher,
		Logger:  logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}
