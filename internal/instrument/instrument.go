package instrument

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	parentSpanIDKey
	instrumenterKey
)

// Event kinds.
const (
	KindSpan  = "span"
	KindAudit = "audit"
)

// Instrumenter records timed spans and audit events for a request.
type Instrumenter interface {
	StartSpan(ctx context.Context, component, action string) (context.Context, Span)
	// Audit records a data change: action is insert, update or delete.
	Audit(ctx context.Context, action, table, recordID string, attrs map[string]any)
}

// Span is a timed operation. End is idempotent.
type Span interface {
	End()
	SetStatus(status string)
	SetAttr(key string, value any)
	SetTable(table, recordID string)
	TraceID() string
}

// Event is what sinks receive, one per finished span or audit record.
type Event struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	Kind         string         `json:"kind"`
	Component    string         `json:"component"`
	Action       string         `json:"action"`
	Table        string         `json:"table,omitempty"`
	RecordID     string         `json:"record_id,omitempty"`
	DurationMs   float64        `json:"duration_ms,omitempty"`
	Status       string         `json:"status,omitempty"`
	Attrs        map[string]any `json:"attrs,omitempty"`
	At           time.Time      `json:"at"`
}

func newID() string {
	return uuid.New().String()
}

// WithTraceID sets the trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

func withParentSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, parentSpanIDKey, spanID)
}

func parentSpanID(ctx context.Context) string {
	if v, ok := ctx.Value(parentSpanIDKey).(string); ok {
		return v
	}
	return ""
}

// WithInstrumenter sets the instrumenter in the context.
func WithInstrumenter(ctx context.Context, inst Instrumenter) context.Context {
	return context.WithValue(ctx, instrumenterKey, inst)
}

// GetInstrumenter returns the instrumenter from the context,
// or a NoopInstrumenter if none is set.
func GetInstrumenter(ctx context.Context) Instrumenter {
	if v, ok := ctx.Value(instrumenterKey).(Instrumenter); ok {
		return v
	}
	return NoopInstrumenter{}
}

// Tracer is the buffered Instrumenter. Sampling applies to spans only:
// audit events are recorded for every request.
type Tracer struct {
	buffer  *EventBuffer
	sampled bool
}

func NewTracer(buffer *EventBuffer, sampled bool) *Tracer {
	return &Tracer{buffer: buffer, sampled: sampled}
}

// StartSpan opens a span; child spans started from the returned context
// point at it as their parent. An unsampled tracer returns a NoopSpan and
// the context unchanged.
func (t *Tracer) StartSpan(ctx context.Context, component, action string) (context.Context, Span) {
	if !t.sampled {
		return ctx, NoopSpan{}
	}
	s := &span{
		event: Event{
			TraceID:      GetTraceID(ctx),
			SpanID:       newID(),
			ParentSpanID: parentSpanID(ctx),
			Kind:         KindSpan,
			Component:    component,
			Action:       action,
		},
		start:  time.Now(),
		buffer: t.buffer,
	}
	return withParentSpanID(ctx, s.event.SpanID), s
}

func (t *Tracer) Audit(ctx context.Context, action, table, recordID string, attrs map[string]any) {
	t.buffer.Enqueue(Event{
		TraceID:      GetTraceID(ctx),
		SpanID:       newID(),
		ParentSpanID: parentSpanID(ctx),
		Kind:         KindAudit,
		Component:    "api",
		Action:       action,
		Table:        table,
		RecordID:     recordID,
		Attrs:        attrs,
		At:           time.Now().UTC(),
	})
}

type span struct {
	mu     sync.Mutex
	event  Event
	start  time.Time
	buffer *EventBuffer
	ended  bool
}

func (s *span) TraceID() string { return s.event.TraceID }

func (s *span) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.event.Status = status
}

func (s *span) SetAttr(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.event.Attrs == nil {
		s.event.Attrs = make(map[string]any)
	}
	s.event.Attrs[key] = value
}

func (s *span) SetTable(table, recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.event.Table = table
	if recordID != "" {
		s.event.RecordID = recordID
	}
}

func (s *span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.event.DurationMs = float64(time.Since(s.start).Microseconds()) / 1000.0
	s.event.At = s.start.UTC()
	s.buffer.Enqueue(s.event)
}
