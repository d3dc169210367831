package mailer

import (
	"context"

	"github.com/dmitrijs2005/tiergate/internal/logging"
)

// LogSender logs the link instead of mailing it. For development only.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mailer")}
}

func (s *LogSender) Send(ctx context.Context, m Message) error {
	s.log.Info(ctx, "magic link", "to", m.To, "link", m.Link, "expires_at", m.ExpiresAt)
	return nil
}
