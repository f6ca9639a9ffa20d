package worker

// email_worker.go
// Processes email jobs from QueueEmail: sale receipts to customers and
// critical stock alerts to the pharmacy.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"botica/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail        string `json:"to_email"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentPath string `json:"attachment_path,omitempty"`
}

// Sender is satisfied by *infra.Mailer.
type Sender interface {
	Send(to, subject, body, attachmentPath string) error
}

// EmailWorker sends queued mails through SMTP.
type EmailWorker struct {
	mailer Sender
}

func NewEmailWorker(mailer Sender) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: invalid email payload: %v", ErrPermanent, err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	err := w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.AttachmentPath)
	if errors.Is(err, infra.ErrMailerDisabled) {
		log.Debug().Str("to", payload.ToEmail).Msg("email_worker: SMTP disabled, mail dropped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Str("subject", payload.Subject).Msg("email_worker: mail sent")
	return nil
}
