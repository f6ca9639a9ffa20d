package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"botica/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body, attachment string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (s *fakeSender) Send(to, subject, body, attachmentPath string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to, subject, body, attachmentPath})
	return nil
}

var _ Sender = (*fakeSender)(nil)

func emailPayload(t *testing.T, p EmailJobPayload) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return raw
}

func TestEmailWorker_Sends(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender)

	err := w.Process(context.Background(), emailPayload(t, EmailJobPayload{
		ToEmail:        "rosa@example.pe",
		Subject:        "Boleta VTA-202603-0001",
		Body:           "Total: S/ 29.50",
		AttachmentPath: "/tmp/boleta.pdf",
	}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, sentMail{"rosa@example.pe", "Boleta VTA-202603-0001", "Total: S/ 29.50", "/tmp/boleta.pdf"}, sender.sent[0])
}

func TestEmailWorker_InvalidPayloadIsPermanent(t *testing.T) {
	w := NewEmailWorker(&fakeSender{})

	err := w.Process(context.Background(), json.RawMessage(`{"to_email":`))
	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, outcomeDead, decide(err, 1))
}

func TestEmailWorker_EmptyRecipientIsSkipped(t *testing.T) {
	sender := &fakeSender{}
	w := NewEmailWorker(sender)

	assert.NoError(t, w.Process(context.Background(), emailPayload(t, EmailJobPayload{Subject: "x"})))
	assert.Empty(t, sender.sent)
}

func TestEmailWorker_DisabledMailerDropsSilently(t *testing.T) {
	w := NewEmailWorker(&fakeSender{err: infra.ErrMailerDisabled})

	assert.NoError(t, w.Process(context.Background(), emailPayload(t, EmailJobPayload{ToEmail: "a@b.pe"})))
}

func TestEmailWorker_SendFailureIsRetried(t *testing.T) {
	boom := errors.New("connection refused")
	w := NewEmailWorker(&fakeSender{err: boom})

	err := w.Process(context.Background(), emailPayload(t, EmailJobPayload{ToEmail: "a@b.pe"}))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPermanent)
	assert.Equal(t, outcomeRetry, decide(err, 1))
}
