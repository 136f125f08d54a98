package notify

import (
	"context"
	"fmt"
	"sync"

	"rockstar/internal/infra"
	"rockstar/internal/mailer"
)

// Claimer is the durable idempotency authority for "has this run's email
// been sent". Both delivery paths share one claimer so a success observed by
// the interactive poll and by the reconciliation sweep still produces a
// single email.
type Claimer interface {
	MarkSent(ctx context.Context, runID string) (bool, error)
	ClearSent(ctx context.Context, runID string) error
}

// Dispatcher sends the composed notification.
type Dispatcher interface {
	SendGeneratedImage(ctx context.Context, req mailer.Request) (mailer.Result, error)
}

// Meta carries the requester fields forwarded to the dispatcher.
type Meta struct {
	UserName string
	Nombre   string
	Apellido string
	Escena   string
}

// Guard enforces at-most-once notification per run id. The durable claim
// decides; the process-local set is only a fallback for instances running
// without a store.
type Guard struct {
	claimer    Claimer
	dispatcher Dispatcher
	logger     infra.Logger

	mu   sync.Mutex
	sent map[string]bool
}

func NewGuard(claimer Claimer, dispatcher Dispatcher, logger infra.Logger) *Guard {
	return &Guard{
		claimer:    claimer,
		dispatcher: dispatcher,
		logger:     logger,
		sent:       make(map[string]bool),
	}
}

// Attempt sends the notification for the run unless a precondition fails or
// the run is already claimed. It never returns an error; the reason string
// explains why nothing was sent. A failed send releases the claim so a
// later sweep can retry.
func (g *Guard) Attempt(ctx context.Context, runID, outputURL, email string, meta Meta) (bool, string) {
	if runID == "" {
		return false, "missing run id"
	}
	if outputURL == "" {
		return false, "no output url"
	}
	if email == "" {
		return false, "missing email"
	}

	claimed, err := g.claim(ctx, runID)
	if err != nil {
		g.logger.Error().Err(err).Str("run_id", runID).Msg("notify: sent claim failed")
		return false, fmt.Sprintf("claim error: %v", err)
	}
	if !claimed {
		return false, "already sent for runId"
	}

	_, err = g.dispatcher.SendGeneratedImage(ctx, mailer.Request{
		ImageURL: outputURL,
		To:       email,
		UserName: meta.UserName,
		Nombre:   meta.Nombre,
		Apellido: meta.Apellido,
		Escena:   meta.Escena,
	})
	if err != nil {
		g.release(ctx, runID)
		g.logger.Error().Err(err).Str("run_id", runID).Msg("notify: send failed")
		return false, fmt.Sprintf("send failed: %v", err)
	}

	g.logger.Info().Str("run_id", runID).Str("email", email).Msg("notify: email sent")
	return true, "sent"
}

func (g *Guard) claim(ctx context.Context, runID string) (bool, error) {
	g.mu.Lock()
	if g.sent[runID] {
		g.mu.Unlock()
		return false, nil
	}
	if g.claimer == nil {
		g.sent[runID] = true
		g.mu.Unlock()
		return true, nil
	}
	g.mu.Unlock()

	claimed, err := g.claimer.MarkSent(ctx, runID)
	if err != nil {
		return false, err
	}
	if claimed {
		g.mu.Lock()
		g.sent[runID] = true
		g.mu.Unlock()
	}
	return claimed, nil
}

func (g *Guard) release(ctx context.Context, runID string) {
	g.mu.Lock()
	delete(g.sent, runID)
	g.mu.Unlock()
	if g.claimer == nil {
		return
	}
	if err := g.claimer.ClearSent(ctx, runID); err != nil {
		g.logger.Error().Err(err).Str("run_id", runID).Msg("notify: release claim failed")
	}
}
