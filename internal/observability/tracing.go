package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"service_name"`
	Exporter     string  `yaml:"exporter"`      // otlp, stdout
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // e.g. localhost:4317
	SampleRatio  float64 `yaml:"sample_ratio"`  // 0.0 to 1.0
}

// InitTracing initializes the OpenTelemetry tracer provider. A disabled config
// returns a nil provider and the global no-op tracer stays in place.
func InitTracing(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "terrama2"
	}
	if cfg.SampleRatio <= 0 {
		cfg.SampleRatio = 0.1 // 10% default for production
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "otlp":
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		exporter = exp
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}

	// Sampler
	var sampler sdktrace.Sampler
	if cfg.SampleRatio >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Version is reported as the service version resource attribute.
var Version = "4.1.0"

// Tracer returns a named tracer for a component.
func Tracer(component string) trace.Tracer {
	return otel.Tracer("terrama2/" + component)
}

// FailSpan marks span as failed when err is set. The span is not ended.
func FailSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Common span attributes.
func EntityKindAttr(kind string) attribute.KeyValue {
	return attribute.String("terrama2.entity.kind", kind)
}

func EntityIDAttr(id int64) attribute.KeyValue {
	return attribute.Int64("terrama2.entity.id", id)
}

func SemanticsCodeAttr(code string) attribute.KeyValue {
	return attribute.String("terrama2.semantics.code", code)
}

func ProjectIDAttr(id int64) attribute.KeyValue {
	return attribute.Int64("terrama2.project.id", id)
}

func ServiceSignalAttr(signal string) attribute.KeyValue {
	return attribute.String("terrama2.service.signal", signal)
}

func ServiceInstanceAttr(addr string) attribute.KeyValue {
	return attribute.String("terrama2.service.instance", addr)
}
