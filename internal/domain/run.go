package domain

import "time"

// Status enumerates the canonical lifecycle states of a generation run as
// understood by this service, independent of upstream vocabulary quirks.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusAPIError Status = "api_error"
)

// Terminal reports whether the status ends a run's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Run is the bookkeeping record for one generation request. The run
// identifier is assigned by the external generation service; everything else
// is captured from the submission form so the completion email can be
// delivered after the submitting session is gone.
type Run struct {
	ID        string
	Nombre    string
	Apellido  string
	Email     string
	Escena    string
	Sent      bool
	CreatedAt time.Time
}

// DisplayName joins the requester's name fields for email composition.
func (r Run) DisplayName() string {
	switch {
	case r.Nombre != "" && r.Apellido != "":
		return r.Nombre + " " + r.Apellido
	case r.Nombre != "":
		return r.Nombre
	default:
		return r.Apellido
	}
}
