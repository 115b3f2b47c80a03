package instrument

import "context"

// NoopInstrumenter discards everything. Used when instrumentation is
// disabled or no tracer is in the context.
type NoopInstrumenter struct{}

func (NoopInstrumenter) StartSpan(ctx context.Context, component, action string) (context.Context, Span) {
	return ctx, NoopSpan{}
}

func (NoopInstrumenter) Audit(ctx context.Context, action, table, recordID string, attrs map[string]any) {
}

// NoopSpan discards all data. Unsampled tracers hand it out too.
type NoopSpan struct{}

func (NoopSpan) End() {}
func (NoopSpan) SetStatus(string) {}
func (NoopSpan) SetAttr(string, any) {}
func (NoopSpan) SetTable(string, string) {}
func (NoopSpan) TraceID() string { return "" }
