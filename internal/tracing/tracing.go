// Package tracing installs the OpenTelemetry tracer provider used for
// registry calls.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/johnrirwin/bizregistry/internal/logging"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterJaeger = "jaeger"
)

// Config selects where finished spans go.
type Config struct {
	ServiceName string
	Exporter    string
	// Endpoint is the Jaeger collector URL. Empty uses the exporter default.
	Endpoint    string
	SampleRatio float64
	// Writer receives stdout spans. Defaults to os.Stderr.
	Writer io.Writer
}

// NewProvider builds a tracer provider for cfg. With the none exporter spans
// are recorded but not exported.
func NewProvider(cfg Config, logger *logging.Logger) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	name := cfg.ServiceName
	if name == "" {
		name = "bizctl"
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	logger.Debug("Tracing configured", logging.WithFields(map[string]interface{}{
		"exporter":     exporterName(cfg.Exporter),
		"sample_ratio": ratio,
	}))
	return sdktrace.NewTracerProvider(opts...), nil
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	switch exporterName(cfg.Exporter) {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("tracing - newExporter - stdouttrace.New: %w", err)
		}
		return exp, nil
	case ExporterJaeger:
		var endpoint []jaeger.CollectorEndpointOption
		if cfg.Endpoint != "" {
			endpoint = append(endpoint, jaeger.WithEndpoint(cfg.Endpoint))
		}
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(endpoint...))
		if err != nil {
			return nil, fmt.Errorf("tracing - newExporter - jaeger.New: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("tracing: unknown exporter %q", cfg.Exporter)
	}
}

func exporterName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ExporterNone
	}
	return s
}

// Shutdown flushes pending spans. A nil provider is a no-op.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
