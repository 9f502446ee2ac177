package services

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes the forecast message to the log. It is used when no
// chat credentials are configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, message string) error {
	p.logger.Info("Forecast", zap.String("message", message))
	return nil
}
