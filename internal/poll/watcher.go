package poll

import (
	"context"
	"errors"
	"time"

	"rockstar/internal/comfy"
	"rockstar/internal/domain"
	"rockstar/internal/infra"
	"rockstar/internal/notify"
)

// ErrWatchTimeout ends a watch whose run never reached a terminal state
// within the configured bound.
var ErrWatchTimeout = errors.New("watch timed out before terminal status")

// StatusFetcher queries the external generation API for a run's raw state.
type StatusFetcher interface {
	GetRun(ctx context.Context, runID string) (comfy.RunState, error)
}

// Update is one observed snapshot of a watched run.
type Update struct {
	RunID         string
	Status        domain.Status
	LiveStatus    string
	OutputURL     string
	Progress      float64
	QueuePosition *int
	Err           error
}

// Meta carries the requester fields needed to notify on first success.
type Meta struct {
	Email    string
	UserName string
	Nombre   string
	Apellido string
	Escena   string
}

// Watcher follows one run interactively: query at a fixed interval until the
// run settles, surface every snapshot to the observer, and trigger the
// delivery guard exactly once on the first success.
type Watcher struct {
	fetcher     StatusFetcher
	guard       *notify.Guard
	interval    time.Duration
	maxDuration time.Duration
	logger      infra.Logger
}

func NewWatcher(fetcher StatusFetcher, guard *notify.Guard, interval, maxDuration time.Duration, logger infra.Logger) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		fetcher:     fetcher,
		guard:       guard,
		interval:    interval,
		maxDuration: maxDuration,
		logger:      logger,
	}
}

// Watch polls the run until it reaches success or failed, the context is
// cancelled, or the maximum watch duration elapses. The first tick fires
// immediately; each following tick is scheduled a fixed delay after the
// previous one completes, so a slow upstream call never piles up ticks.
// onUpdate receives every snapshot, including transient api_error ones,
// which do not stop the watch. Triggering the notification is one-shot per
// Watch call; starting a new Watch for a new run resets it.
func (w *Watcher) Watch(ctx context.Context, runID string, meta Meta, onUpdate func(Update)) (Update, error) {
	if runID == "" {
		return Update{}, domain.ErrValidation
	}
	if w.maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, w.maxDuration, ErrWatchTimeout)
		defer cancel()
	}

	triggered := false
	var last Update
	for {
		last = w.tick(ctx, runID)
		if onUpdate != nil {
			onUpdate(last)
		}

		if last.Status == domain.StatusSuccess && last.OutputURL != "" && !triggered {
			triggered = true
			sent, reason := w.guard.Attempt(ctx, runID, last.OutputURL, meta.Email, notify.Meta{
				UserName: meta.UserName,
				Nombre:   meta.Nombre,
				Apellido: meta.Apellido,
				Escena:   meta.Escena,
			})
			if !sent {
				w.logger.Warn().Str("run_id", runID).Str("reason", reason).Msg("poll: notification skipped")
			}
		}

		if last.Status.Terminal() {
			return last, nil
		}

		select {
		case <-ctx.Done():
			return last, context.Cause(ctx)
		case <-time.After(w.interval):
		}
	}
}

func (w *Watcher) tick(ctx context.Context, runID string) Update {
	state, err := w.fetcher.GetRun(ctx, runID)
	if err != nil {
		w.logger.Error().Err(err).Str("run_id", runID).Msg("poll: status fetch failed")
		return Update{RunID: runID, Status: domain.StatusAPIError, Err: err}
	}

	status, outputURL := comfy.Normalize(state)
	return Update{
		RunID:         runID,
		Status:        status,
		LiveStatus:    state.LiveStatus,
		OutputURL:     outputURL,
		Progress:      state.Progress,
		QueuePosition: state.QueuePosition,
	}
}
