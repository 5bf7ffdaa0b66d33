package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/routecard/internal/pkg/logger"
)

// OtelConfig selects where store and hierarchy spans go. With no Endpoint,
// spans are printed to stderr. OTLP headers and TLS settings come from the
// standard OTEL_EXPORTER_OTLP_* variables, which the exporter reads itself.
type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// TracerName is the instrumentation scope used by the store gateway and
// hierarchy services.
const TracerName = "github.com/yungbote/routecard"

// Tracer returns the tracer every component starts its spans from. It is a
// no-op until InitOTel installs a provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

var (
	otelOnce     sync.Once
	otelShutdown = func(context.Context) error { return nil }
)

// InitOTel installs the global tracer provider once. It never fails: a
// broken exporter is logged and tracing stays a no-op.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		tp, err := newTracerProvider(ctx, cfg, os.Stderr)
		if err != nil {
			if log != nil {
				log.Warn("otel exporter init failed (continuing)", "error", err)
			}
			return
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized", "service", serviceName(cfg), "endpoint", cfg.Endpoint)
		}
	})
	return otelShutdown
}

func newTracerProvider(ctx context.Context, cfg OtelConfig, out io.Writer) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(out))
	}
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(
		semconv.ServiceNameKey.String(serviceName(cfg)),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	), nil
}

func serviceName(cfg OtelConfig) string {
	if s := strings.TrimSpace(cfg.ServiceName); s != "" {
		return s
	}
	return "routecard"
}

// sampleRatio defaults to sampling everything; an import is a handful of
// spans, not a request stream.
func sampleRatio(r float64) float64 {
	switch {
	case r <= 0:
		return 1
	case r > 1:
		return 1
	}
	return r
}
