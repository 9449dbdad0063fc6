package tracing

import (
	"context"
	"testing"

	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestWithoutTracer(t *testing.T) {
	SetTracer(nil)

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()

	assert.Nil(t, GetActiveSpan(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetTraceParent(ctx))
}

func TestSpanIdentifiers(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() {
		SetTracer(nil)
		_ = tp.Shutdown(context.Background())
	})
	SetTracer(tp.Tracer("test"))

	ctx, span := StartSpan(context.Background(), "run")
	defer span.End()

	traceID, spanID := GetTraceID(ctx), GetSpanID(ctx)
	require.Len(t, traceID, 32)
	require.Len(t, spanID, 16)
	assert.Equal(t, "00-"+traceID+"-"+spanID+"-01", GetTraceParent(ctx))

	child, childSpan := StartSpan(ctx, "stage")
	defer childSpan.End()
	assert.Equal(t, traceID, GetTraceID(child))
	assert.NotEqual(t, spanID, GetSpanID(child))
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), "clover", exporters.OTLPConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupRejectsUnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), "clover", exporters.OTLPConfig{Endpoint: "localhost:4317", Protocol: "udp"})
	assert.Error(t, err)
}

func TestFail(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		SetTracer(nil)
		_ = tp.Shutdown(context.Background())
	})
	SetTracer(tp.Tracer("test"))

	_, span := StartSpan(context.Background(), "consolidate.join", AttrRunID.String("run-1"))
	Fail(span, errors.NewStageError("duplicate key").AddStage(errors.StageJoin).AddFile("lieux-2023.csv"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, otelcodes.Error, spans[0].Status.Code)

	attrs := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "run-1", attrs[AttrRunID])
	assert.Equal(t, errors.StageJoin, attrs[AttrStage])
	assert.Equal(t, "lieux-2023.csv", attrs[AttrFile])
}
