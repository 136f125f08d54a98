package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("invalid input")
	ErrConfiguration     = errors.New("missing configuration")
	ErrUpstreamProtocol  = errors.New("unexpected upstream response")
	ErrTransientUpstream = errors.New("transient upstream failure")
	ErrDelivery          = errors.New("email delivery failed")
)
