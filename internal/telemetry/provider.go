package telemetry

import (
	"context"
	"errors"
	"os"
	"runtime"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"golang.org/x/xerrors"
)

type Config struct {
	ServiceName string
	// OTLPEndpoint enables span export over gRPC when set
	OTLPEndpoint string
	// PyroscopeEndpoint enables continuous profiling when set
	PyroscopeEndpoint string
	// RuntimeMetrics adds the Go and process collectors to the registry
	RuntimeMetrics bool
}

func ConfigFromEnv(serviceName string) Config {
	return Config{
		ServiceName:       serviceName,
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		PyroscopeEndpoint: os.Getenv("PYROSCOPE_ENDPOINT"),
	}
}

// Provider owns the process-wide meter and tracer providers. Metrics land in
// Registry, which is what /metrics serves and what gets pushed.
type Provider struct {
	Registry       *prometheus.Registry
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	profiler       *pyroscope.Profiler
}

// Setup installs the global OpenTelemetry providers.
func Setup(ctx context.Context, config Config) (*Provider, error) {
	p := &Provider{
		Registry: prometheus.NewRegistry(),
	}
	if config.RuntimeMetrics {
		p.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})

	r, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(config.ServiceName)),
	)
	if err != nil {
		return nil, xerrors.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otelprometheus.New(otelprometheus.WithRegisterer(p.Registry))
	if err != nil {
		return nil, xerrors.Errorf("failed to create exporter: %w", err)
	}
	// NOTE: Gauge(UpDownCounter), Summary or Untyped does not support exemplars
	// https://github.com/prometheus/client_golang/blob/v1.20.4/prometheus/metric.go#L200
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(r),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)

	tracerOptions := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(r),
	}
	if config.OTLPEndpoint != "" {
		traceExporter, err := otlptracegrpc.New(ctx)
		if err != nil {
			return nil, xerrors.Errorf("failed to create trace exporter: %w", err)
		}
		tracerOptions = append(tracerOptions, sdktrace.WithBatcher(traceExporter))
	}
	p.tracerProvider = sdktrace.NewTracerProvider(tracerOptions...)
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(p.tracerProvider))

	if config.PyroscopeEndpoint != "" {
		runtime.SetMutexProfileFraction(1)
		runtime.SetBlockProfileRate(1)

		p.profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: config.ServiceName,
			ServerAddress:   config.PyroscopeEndpoint,
			UploadRate:      60 * time.Second,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
				pyroscope.ProfileGoroutines,
				pyroscope.ProfileMutexCount,
				pyroscope.ProfileMutexDuration,
				pyroscope.ProfileBlockCount,
				pyroscope.ProfileBlockDuration,
			},
		})
		if err != nil {
			return nil, xerrors.Errorf("failed to create profiler: %w", err)
		}
	}

	return p, nil
}

func (p *Provider) Meter(name string) metric.Meter {
	return p.meterProvider.Meter(name)
}

// Shutdown flushes pending spans and stops the profiler.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, xerrors.Errorf("failed to shutdown trace provider: %w", err))
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, xerrors.Errorf("failed to shutdown meter provider: %w", err))
	}
	if p.profiler != nil {
		if err := p.profiler.Stop(); err != nil {
			errs = append(errs, xerrors.Errorf("failed to shutdown profiler: %w", err))
		}
	}
	return errors.Join(errs...)
}
