package events

import (
	"context"

	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("sink", "log")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Handle(ctx context.Context, e models.Event) error {
	args := []any{"id", e.ID, "type", e.Type, "email", e.Email}
	for k, v := range e.Details {
		args = append(args, k, v)
	}
	s.log.Info(ctx, "event", args...)
	return nil
}
