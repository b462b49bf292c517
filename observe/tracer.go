package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Span operation names.
const (
	OpBegin = "begin"
	OpEnd   = "end"
	OpPurge = "purge"
)

// Attribute keys shared by spans, metrics and log lines.
const (
	AttrTenant  = "fragment.tenant"
	AttrSite    = "fragment.site"
	AttrKey     = "fragment.key"
	AttrOutcome = "fragment.outcome"
	AttrError   = "fragment.error"
	AttrOp      = "fragment.op"
)

// FragmentMeta identifies a fragment for telemetry purposes.
type FragmentMeta struct {
	Tenant string // Owning tenant (may be empty)
	Site   string // Call-site identifier
	Key    string // Derived fragment key (empty before derivation)
}

// SpanName returns the span name for an operation on this fragment.
// Format: fragment.<op>
func (m FragmentMeta) SpanName(op string) string {
	return "fragment." + op
}

func (m FragmentMeta) attributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if m.Tenant != "" {
		attrs = append(attrs, attribute.String(AttrTenant, m.Tenant))
	}
	if m.Site != "" {
		attrs = append(attrs, attribute.String(AttrSite, m.Site))
	}
	if m.Key != "" {
		attrs = append(attrs, attribute.String(AttrKey, m.Key))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with fragment-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan returns a context carrying the new span.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for op on the given fragment.
	StartSpan(ctx context.Context, op string, meta FragmentMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, op string, meta FragmentMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool(AttrError, false))

	return t.tracer.Start(ctx, meta.SpanName(op),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool(AttrError, true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, op string, meta FragmentMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName(op))
}

func (t *noopTracer) EndSpan(span trace.Span, _ error) {
	span.End()
}
