package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"

	"rockstar/internal/domain"
	"rockstar/internal/infra"
)

// attachmentLimit caps how much image data gets inlined into an email.
const attachmentLimit = 15 << 20

// Mailer composes and sends the generated-image notification: one message
// to the requester and one copy to the administrative address.
type Mailer struct {
	client     *Client
	fetcher    *http.Client
	fromEmail  string
	adminEmail string
	logger     infra.Logger
}

func New(client *Client, fromEmail, adminEmail string, logger infra.Logger) *Mailer {
	return &Mailer{
		client:     client,
		fetcher:    &http.Client{Timeout: 30 * time.Second},
		fromEmail:  fromEmail,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// Request carries everything needed to notify one requester.
type Request struct {
	ImageURL string
	To       string
	UserName string
	Nombre   string
	Apellido string
	Escena   string
}

// Result reports the provider message ids and whether the image could be
// attached or only linked.
type Result struct {
	UserMessageID  string
	AdminMessageID string
	Attached       bool
}

// SendGeneratedImage notifies the requester and the admin address. The
// attachment is best-effort: when the image fetch fails the messages carry a
// download link instead and the send still succeeds. Only a failing send to
// the requester is fatal; the admin copy is logged on failure.
func (m *Mailer) SendGeneratedImage(ctx context.Context, req Request) (Result, error) {
	var res Result
	if req.ImageURL == "" || req.To == "" {
		return res, fmt.Errorf("mailer: %w: imageUrl and userEmail are required", domain.ErrValidation)
	}

	first, last, display := SplitName(req.UserName, req.Nombre, req.Apellido)

	attachment, err := m.fetchAttachment(ctx, req.ImageURL, first, last)
	if err != nil {
		m.logger.Warn().Err(err).Str("image_url", req.ImageURL).Msg("mailer: attachment fetch failed, falling back to link")
		attachment = nil
	}
	res.Attached = attachment != nil

	userMsg := Message{
		From:    m.fromEmail,
		To:      []string{req.To},
		Subject: fmt.Sprintf("¡Tu foto como Rockstar está lista, %s!", first),
		HTML:    userBody(display, req.Escena, req.ImageURL, res.Attached),
	}
	adminMsg := Message{
		From:    m.fromEmail,
		To:      []string{m.adminEmail},
		Subject: adminSubject(display, req.Escena),
		HTML:    adminBody(display, req.To, req.Escena, req.ImageURL),
	}
	if attachment != nil {
		userMsg.Attachments = []Attachment{*attachment}
		adminMsg.Attachments = []Attachment{*attachment}
	}

	res.UserMessageID, err = m.client.Send(ctx, userMsg)
	if err != nil {
		return res, err
	}

	res.AdminMessageID, err = m.client.Send(ctx, adminMsg)
	if err != nil && !errors.Is(err, domain.ErrConfiguration) {
		m.logger.Error().Err(err).Str("admin_email", m.adminEmail).Msg("mailer: admin copy failed")
	}
	return res, nil
}

func (m *Mailer) fetchAttachment(ctx context.Context, imageURL, first, last string) (*Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.fetcher.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch failed: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, attachmentLimit))
	if err != nil {
		return nil, err
	}

	ext, _ := GuessExtAndMime(imageURL)
	if last == "" {
		last = "rockstar"
	}
	return &Attachment{
		Filename: fmt.Sprintf("%s_%s.%s", first, last, ext),
		Content:  base64.StdEncoding.EncodeToString(data),
	}, nil
}

func userBody(display, escena, imageURL string, attached bool) string {
	sceneLine := ""
	if escena != "" {
		sceneLine = fmt.Sprintf("tocando <strong>%s</strong> ", html.EscapeString(escena))
	}
	imageLine := "Adjuntamos tu imagen generada."
	if !attached {
		imageLine = fmt.Sprintf(`Aquí puedes descargar tu imagen:<br><a href="%s" target="_blank">%s</a>`, imageURL, html.EscapeString(imageURL))
	}
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto;">
  <h1 style="color:#e63946;text-align:center;">¡Bienvenido a School of Rock!</h1>
  <p style="font-size:16px;">Hola %s,</p>
  <p style="font-size:16px;">Tu transformación como estrella de rock %sestá completa.</p>
  <p style="font-size:16px;">%s</p>
  <p style="font-size:14px;color:#666;margin-top:30px;">Saludos,<br/>Sexto Básico - Coyancura</p>
</div>`, html.EscapeString(display), sceneLine, imageLine)
}

func adminSubject(display, escena string) string {
	subject := "Copia admin – Imagen generada: " + display
	if escena != "" {
		subject += " (" + escena + ")"
	}
	return subject
}

func adminBody(display, userEmail, escena, imageURL string) string {
	if escena == "" {
		escena = "N/D"
	}
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 640px; margin: 0 auto;">
  <p>Se generó una imagen para <b>%s</b> (%s).</p>
  <p>Link de la imagen: <a href="%s" target="_blank">%s</a></p>
  <p>Escena: %s</p>
</div>`, html.EscapeString(display), html.EscapeString(userEmail), imageURL, html.EscapeString(imageURL), html.EscapeString(escena))
}
