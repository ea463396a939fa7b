package runnable

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"snapshot-comparator/internal/env"
	"snapshot-comparator/internal/myhttp"
	"snapshot-comparator/internal/telemetry"
	"syscall"
	"time"

	pyroscopepprof "github.com/grafana/pyroscope-go/http/pprof"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/net/netutil"
	"golang.org/x/xerrors"
)

type Server struct {
	address                string
	terminationGracePeriod time.Duration
	lameduck               time.Duration
	keepAlive              bool
	maxConnections         int
	schedule               string

	runner   *Runner
	registry *prometheus.Registry
	meter    metric.Meter
	logger   *slog.Logger
}

func NewServer(runner *Runner, registry *prometheus.Registry, meter metric.Meter, logger *slog.Logger) *Server {
	return &Server{
		address:                env.OrDefault("ADDRESS", "0.0.0.0:8082"),
		terminationGracePeriod: env.OrDefault("TERMINATION_GRACE_PERIOD", 10*time.Second),
		lameduck:               env.OrDefault("LAMEDUCK", 1*time.Second),
		keepAlive:              env.OrDefault("HTTP_KEEPALIVE", true),
		maxConnections:         env.OrDefault("MAX_CONNECTIONS", 65532),
		schedule:               env.OrDefault("SCHEDULE", "*/15 * * * *"),
		runner:                 runner,
		registry:               registry,
		meter:                  meter,
		logger:                 logger,
	}
}

var Debug = false

// Handler serves the health, metrics and comparison endpoints.
func (s *Server) Handler() (http.Handler, error) {
	httpRequestsDurationMicroSeconds, err := s.meter.Int64Histogram("http_requests_duration_micro_seconds")
	if err != nil {
		return nil, xerrors.Errorf("failed to create histogram: %w", err)
	}

	mux := myhttp.NewServerMux(s.logger, httpRequestsDurationMicroSeconds)

	mux.HandleFuncWithMiddleware("GET /report", report(s.runner))
	mux.HandleFuncWithMiddleware("POST /compare", compareNow(s.runner))

	mux.HandleFunc("GET /healthz", healthz)

	mux.Handle("GET /metrics", promhttp.InstrumentMetricHandler(
		s.registry, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}),
	))

	if Debug {
		mux.HandleFunc("GET /debug/pprof/", pprof.Index)
		mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
		mux.HandleFunc("GET /debug/pprof/profile", pyroscopepprof.Profile)
	}

	return mux, nil
}

// Start serves until SIGTERM or SIGINT, then stops the schedule, waits for
// the lameduck period and drains connections within the grace period.
func (s *Server) Start(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	scheduleLogger := telemetry.Logr(s.logger).WithName("cron")
	c := cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLogger(scheduleLogger),
		cron.WithChain(cron.Recover(scheduleLogger)),
	)
	if _, err := c.AddFunc(s.schedule, func() { s.runner.Run(ctx) }); err != nil {
		return xerrors.Errorf("failed to parse schedule %s: %w", s.schedule, err)
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return xerrors.Errorf("failed to listen on address %s: %w", s.address, err)
	}

	server := &http.Server{
		Handler: handler,
	}
	server.SetKeepAlivesEnabled(s.keepAlive)

	go func() {
		if err := server.Serve(netutil.LimitListener(listener, s.maxConnections)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("failed to serve HTTP", "error", err)
		}
	}()
	c.Start()
	s.logger.Info("serving", "address", s.address, "schedule", s.schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	time.Sleep(s.lameduck)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.terminationGracePeriod)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return xerrors.Errorf("failed to shutdown server: %w", err)
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return xerrors.Errorf("failed to wait for running comparison: %w", ctx.Err())
	}

	return nil
}
