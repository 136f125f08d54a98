package sweep

import (
	"context"
	"errors"

	"rockstar/internal/comfy"
	"rockstar/internal/domain"
	"rockstar/internal/infra"
	"rockstar/internal/notify"
)

// StatusFetcher queries the external generation API for a run's raw state.
type StatusFetcher interface {
	GetRun(ctx context.Context, runID string) (comfy.RunState, error)
}

// RunError records why one run could not be advanced during a sweep.
type RunError struct {
	RunID string `json:"runId"`
	Error string `json:"error"`
}

// Summary reports one sweep invocation.
type Summary struct {
	Completed    []string   `json:"completed"`
	Failed       []string   `json:"failed"`
	TotalChecked int        `json:"total_checked"`
	Errors       []RunError `json:"errors"`
}

// Sweeper re-checks every pending run, covering jobs whose owning session
// is no longer polling.
type Sweeper struct {
	store   domain.RunStore
	fetcher StatusFetcher
	guard   *notify.Guard
	logger  infra.Logger
}

func New(store domain.RunStore, fetcher StatusFetcher, guard *notify.Guard, logger infra.Logger) *Sweeper {
	return &Sweeper{store: store, fetcher: fetcher, guard: guard, logger: logger}
}

// Run advances every pending run one step. A single run's failure never
// aborts the batch: transport errors leave the run pending for the next
// sweep, delivery failures are logged, and the summary always reflects
// every id that was checked.
func (s *Sweeper) Run(ctx context.Context) (Summary, error) {
	summary := Summary{
		Completed: []string{},
		Failed:    []string{},
		Errors:    []RunError{},
	}

	pending, err := s.store.PendingRuns(ctx)
	if err != nil {
		return summary, err
	}
	summary.TotalChecked = len(pending)
	if len(pending) == 0 {
		return summary, nil
	}

	for _, runID := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		state, err := s.fetcher.GetRun(ctx, runID)
		if err != nil {
			// Left in the pending set: the next sweep retries.
			s.logger.Error().Err(err).Str("run_id", runID).Msg("sweep: status fetch failed")
			summary.Errors = append(summary.Errors, RunError{RunID: runID, Error: err.Error()})
			continue
		}

		status, outputURL := comfy.Normalize(state)
		switch status {
		case domain.StatusSuccess:
			s.deliver(ctx, runID, outputURL)
			summary.Completed = append(summary.Completed, runID)
			if err := s.store.RemovePending(ctx, runID); err != nil {
				s.logger.Error().Err(err).Str("run_id", runID).Msg("sweep: remove pending failed")
			}
			if err := s.store.DeleteRun(ctx, runID); err != nil {
				s.logger.Error().Err(err).Str("run_id", runID).Msg("sweep: delete run failed")
			}
		case domain.StatusFailed:
			// The record is kept on purpose so failed runs can be inspected.
			summary.Failed = append(summary.Failed, runID)
			if err := s.store.RemovePending(ctx, runID); err != nil {
				s.logger.Error().Err(err).Str("run_id", runID).Msg("sweep: remove pending failed")
			}
		default:
			s.logger.Debug().Str("run_id", runID).Str("status", string(status)).Msg("sweep: still in progress")
		}
	}

	return summary, nil
}

// deliver looks up the run's contact info and hands the success to the
// delivery guard. Failures here are logged, never fatal to the sweep.
func (s *Sweeper) deliver(ctx context.Context, runID, outputURL string) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Str("run_id", runID).Msg("sweep: success without stored run record")
		} else {
			s.logger.Error().Err(err).Str("run_id", runID).Msg("sweep: run lookup failed")
		}
		return
	}
	if run.Email == "" || outputURL == "" {
		s.logger.Warn().Str("run_id", runID).
			Bool("has_email", run.Email != "").
			Bool("has_output_url", outputURL != "").
			Msg("sweep: success without email or output url")
		return
	}

	sent, reason := s.guard.Attempt(ctx, runID, outputURL, run.Email, notify.Meta{
		UserName: run.DisplayName(),
		Nombre:   run.Nombre,
		Apellido: run.Apellido,
		Escena:   run.Escena,
	})
	if !sent {
		s.logger.Warn().Str("run_id", runID).Str("reason", reason).Msg("sweep: notification skipped")
	}
}
