package alerting

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// LogSink writes alerts to a structured logger with a per-kind token bucket to
// keep alert storms from flooding the log. Suppressed alerts are counted and
// reported on the next alert of the same kind that passes the limiter.
type LogSink struct {
	logger       *slog.Logger
	ratePerSec   float64
	burst        int
	alertCounter metric.Int64Counter

	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	suppressed map[string]int64
}

// LogSinkOption configures a LogSink.
type LogSinkOption func(*LogSink)

// WithAlertCounter attaches an otel counter incremented for every raised alert,
// including suppressed ones.
func WithAlertCounter(counter metric.Int64Counter) LogSinkOption {
	return func(s *LogSink) {
		s.alertCounter = counter
	}
}

// NewLogSink creates a LogSink. ratePerSec and burst bound the per-kind
// emission rate; a non-positive rate disables throttling.
func NewLogSink(logger *slog.Logger, ratePerSec float64, burst int, opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger:     logger,
		ratePerSec: ratePerSec,
		burst:      burst,
		limiters:   make(map[string]*rate.Limiter),
		suppressed: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Raise records the alert. Critical alerts bypass the rate limit.
func (s *LogSink) Raise(kind string, severity Severity, details map[string]any) {
	if s.alertCounter != nil {
		s.alertCounter.Add(context.Background(), 1,
			metric.WithAttributes(
				attribute.String("kind", kind),
				attribute.String("severity", string(severity)),
			),
		)
	}

	suppressed := int64(0)
	if severity != SeverityCritical && s.ratePerSec > 0 {
		s.mu.Lock()
		limiter, ok := s.limiters[kind]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(s.ratePerSec), s.burst)
			s.limiters[kind] = limiter
		}
		if !limiter.Allow() {
			s.suppressed[kind]++
			s.mu.Unlock()
			return
		}
		suppressed = s.suppressed[kind]
		s.suppressed[kind] = 0
		s.mu.Unlock()
	}

	attrs := make([]slog.Attr, 0, len(details)+3)
	attrs = append(attrs,
		slog.String("alert_kind", kind),
		slog.String("severity", string(severity)),
	)
	if suppressed > 0 {
		attrs = append(attrs, slog.Int64("suppressed_since_last", suppressed))
	}
	for key, value := range details {
		attrs = append(attrs, slog.Any(key, value))
	}

	s.logger.LogAttrs(context.Background(), severityLevel(severity), "alert raised", attrs...)
}

// severityLevel maps alert severities to slog levels.
func severityLevel(severity Severity) slog.Level {
	switch severity {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
