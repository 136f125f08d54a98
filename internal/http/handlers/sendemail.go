package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"rockstar/internal/domain"
	"rockstar/internal/mailer"
)

type sendEmailRequest struct {
	ImageURL  string `json:"imageUrl"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
	Nombre    string `json:"nombre"`
	Apellido  string `json:"apellido"`
	Escena    string `json:"escena"`
}

type sendEmailResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Results  []string `json:"results"`
	Attached bool     `json:"attached"`
}

// SendEmail composes and sends the notification for a finished run: one
// message to the requester, one admin copy.
func (a *App) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ImageURL == "" || req.UserEmail == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "missing required fields: imageUrl or userEmail")
		return
	}
	if a.Cfg.ResendAPIKey == "" {
		a.error(w, http.StatusInternalServerError, "server_misconfig", "RESEND_API_KEY is not configured")
		return
	}

	res, err := a.Mailer.SendGeneratedImage(r.Context(), mailer.Request{
		ImageURL: req.ImageURL,
		To:       req.UserEmail,
		UserName: req.UserName,
		Nombre:   req.Nombre,
		Apellido: req.Apellido,
		Escena:   req.Escena,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		case errors.Is(err, domain.ErrConfiguration):
			a.error(w, http.StatusInternalServerError, "server_misconfig", "email provider credential unavailable")
		default:
			a.Logger.Error().Err(err).Msg("send-email: delivery failed")
			a.error(w, http.StatusInternalServerError, "delivery", "failed to send email")
		}
		return
	}

	results := []string{res.UserMessageID}
	if res.AdminMessageID != "" {
		results = append(results, res.AdminMessageID)
	}
	a.json(w, http.StatusOK, sendEmailResponse{
		Success:  true,
		Message:  "Emails sent successfully",
		Results:  results,
		Attached: res.Attached,
	})
}
