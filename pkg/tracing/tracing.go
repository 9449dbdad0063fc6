package tracing

import (
	"context"
	stderrors "errors"

	"github.com/Ramsey-B/clover/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the pipeline, the sinks and the API spans.
const (
	AttrRunID = attribute.Key("clover.run_id")
	AttrYear  = attribute.Key("clover.year")
	AttrStage = attribute.Key("clover.stage")
	AttrFile  = attribute.Key("clover.file")
	AttrRows  = attribute.Key("clover.rows")
)

var tracer trace.Tracer

// SetTracer sets the tracer used by StartSpan. A nil tracer disables tracing.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// GetActiveSpan returns the recording span carried by ctx, or nil.
func GetActiveSpan(ctx context.Context) trace.Span {
	if tracer == nil {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

// StartSpan starts a span named spanName with the given attributes. Without a
// configured tracer the span is a no-op.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// Fail marks span as failed. A StageError also tags the span with the stage
// and file it names.
func Fail(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	var stageErr *errors.StageError
	if stderrors.As(err, &stageErr) {
		if stageErr.Stage != "" {
			span.SetAttributes(AttrStage.String(stageErr.Stage))
		}
		if stageErr.File != "" {
			span.SetAttributes(AttrFile.String(stageErr.File))
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceParent returns the W3C traceparent header value for the active span.
func GetTraceParent(ctx context.Context) string {
	if GetActiveSpan(ctx) == nil {
		return ""
	}
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, carrier)
	return carrier.Get("traceparent")
}

func GetTraceID(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

func GetSpanID(ctx context.Context) string {
	span := GetActiveSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
