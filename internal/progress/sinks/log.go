package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/progress"
)

// LogSink mirrors the progress stream into structured logs.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event with structured fields. Log-only events omit the
// percent field.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID),
			zap.String("phase", string(evt.Phase)),
			zap.String("message", evt.Message),
		}
		if evt.Percent != progress.Sentinel {
			fields = append(fields, zap.Int("percent", evt.Percent))
		}
		s.logger.Info("progress", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error { return nil }
