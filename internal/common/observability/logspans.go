// internal/common/observability/logspans.go
package observability

import (
	"context"

	"investor-match-workers/internal/common/logger"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogSpanProcessor writes every ended span to the structured log. Spans that
// ended with an error status are logged at warn, the rest at debug.
type LogSpanProcessor struct {
	log logger.Logger
}

var _ sdktrace.SpanProcessor = (*LogSpanProcessor)(nil)

func NewLogSpanProcessor(log logger.Logger) *LogSpanProcessor {
	return &LogSpanProcessor{log: log}
}

func (p *LogSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *LogSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := map[string]interface{}{
		"span":       s.Name(),
		"traceId":    s.SpanContext().TraceID().String(),
		"spanId":     s.SpanContext().SpanID().String(),
		"durationMs": s.EndTime().Sub(s.StartTime()).Milliseconds(),
	}
	for _, kv := range s.Attributes() {
		fields[string(kv.Key)] = kv.Value.Emit()
	}

	if status := s.Status(); status.Code == codes.Error {
		fields["error"] = status.Description
		p.log.Warn("span failed", fields)
		return
	}
	p.log.Debug("span ended", fields)
}

func (p *LogSpanProcessor) Shutdown(context.Context) error { return nil }

func (p *LogSpanProcessor) ForceFlush(context.Context) error { return nil }
