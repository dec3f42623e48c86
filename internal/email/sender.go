package email

import (
	"context"
	"strings"

	pkgerrors "github.com/microtasklabs/microtask-backend/pkg/errors"
	"github.com/microtasklabs/microtask-backend/pkg/logger"
)

// Message is an outbound email payload.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers transactional email. Callers treat delivery as
// fire-and-forget: a failed send never rolls back the workflow that
// triggered it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type logSender struct {
	from string
	logg *logger.Logger
}

// NewLogSender returns a sender that writes messages to the structured
// log instead of an SMTP relay. It stands in for a real provider in
// every environment without mail credentials.
func NewLogSender(from string, logg *logger.Logger) (Sender, error) {
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required for email sender")
	}
	return &logSender{from: from, logg: logg}, nil
}

func (s *logSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email recipient required")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"email_from":    s.from,
		"email_to":      msg.To,
		"email_subject": msg.Subject,
	})
	s.logg.Info(ctx, "email dispatched")
	return nil
}

// SendAsync fires the send on a goroutine and logs failures. Used after
// transaction commit so email problems never surface to the client.
func SendAsync(ctx context.Context, sender Sender, logg *logger.Logger, msg Message) {
	if sender == nil {
		return
	}
	go func() {
		detached := context.WithoutCancel(ctx)
		if err := sender.Send(detached, msg); err != nil && logg != nil {
			logg.Warn(logg.WithField(detached, "email_to", msg.To), "email send failed")
		}
	}()
}
