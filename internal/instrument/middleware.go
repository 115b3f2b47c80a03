package instrument

import (
	"math/rand/v2"

	"github.com/gofiber/fiber/v2"

	"transit-backend/internal/config"
)

// TraceHeader carries the trace ID in and out of the API.
const TraceHeader = "X-Trace-ID"

// Middleware starts a trace per request: it propagates or generates the
// trace ID, opens the root HTTP span and puts the tracer into the request
// context for the engine and ops handlers. The sampling rate decides whether
// the request records spans; audit events are kept either way. A nil buffer
// disables it.
func Middleware(cfg config.InstrumentationConfig, buffer *EventBuffer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.Enabled || buffer == nil {
			return c.Next()
		}
		sampled := cfg.SamplingRate >= 1.0 || rand.Float64() < cfg.SamplingRate

		traceID := c.Get(TraceHeader)
		if traceID == "" {
			traceID = newID()
		}

		tracer := NewTracer(buffer, sampled)
		ctx := WithInstrumenter(WithTraceID(c.UserContext(), traceID), tracer)
		ctx, span := tracer.StartSpan(ctx, "http", "request")
		span.SetAttr("method", c.Method())
		span.SetAttr("path", c.Path())
		c.SetUserContext(ctx)
		c.Set(TraceHeader, traceID)

		err := c.Next()

		// Errors are rendered by the app's error handler after this returns,
		// so a returned error counts as a failure regardless of status so far.
		statusCode := c.Response().StatusCode()
		span.SetAttr("status_code", statusCode)
		if err != nil || statusCode >= 400 {
			span.SetStatus("error")
		} else {
			span.SetStatus("ok")
		}
		span.End()

		return err
	}
}
