package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

type ProviderConfig struct {
	ServiceName string
	// Exporter is "otlp", "console" or "none"
	Exporter string
	OTLP     exporters.OTLPConfig
}

// Provider owns the SDK tracer provider for the process.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider installs a global tracer provider and the package tracer.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "otlp":
		exporter, err = exporters.NewOTLPExporter(ctx, cfg.OTLP)
	case "console":
		exporter, err = exporters.NewConsoleExporter(os.Stdout, false)
	default:
		return &Provider{}, nil
	}
	if err != nil {
		return nil, err
	}

	resource := sdkresource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	SetTracer(tp.Tracer(cfg.ServiceName))

	return &Provider{tp: tp}, nil
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
