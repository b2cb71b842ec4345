package email

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to a logger instead of delivering them. Bodies go
// out at Debug only.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(l *zap.Logger) *LogSender {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogSender{log: l.Named("email")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.log.Info("email queued", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	s.log.Debug("email body", zap.String("to", msg.To), zap.String("body", msg.Body))
	return nil
}
