package instrument

import (
	"context"
	"fmt"
	"log/slog"

	"transit-backend/internal/config"
)

// Sink receives flushed event batches.
type Sink interface {
	Name() string
	Write(ctx context.Context, events []Event) error
	Close() error
}

// NewSink builds the sink named by cfg.Sink. Unknown names are an error so a
// typo in app.yaml does not silently drop the audit trail.
func NewSink(ctx context.Context, cfg config.InstrumentationConfig, logger *slog.Logger) (Sink, error) {
	switch cfg.Sink {
	case "", "log":
		return NewLogSink(logger), nil
	case "kafka":
		return NewKafkaSink(cfg.Kafka)
	case "redis":
		return NewRedisSink(ctx, cfg.Redis)
	case "dynamodb":
		return NewDynamoDBSink(ctx, cfg.DynamoDB)
	default:
		return nil, fmt.Errorf("unknown instrumentation sink %q", cfg.Sink)
	}
}

// LogSink writes events as structured log records.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, events []Event) error {
	for _, e := range events {
		level := slog.LevelDebug
		if e.Kind == KindAudit {
			level = slog.LevelInfo
		}
		s.logger.LogAttrs(ctx, level, e.Kind,
			slog.String("trace_id", e.TraceID),
			slog.String("component", e.Component),
			slog.String("action", e.Action),
			slog.String("table", e.Table),
			slog.String("record_id", e.RecordID),
			slog.Float64("duration_ms", e.DurationMs),
			slog.String("status", e.Status),
			slog.Any("attrs", e.Attrs),
		)
	}
	return nil
}

func (s *LogSink) Close() error { return nil }
