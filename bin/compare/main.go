package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"snapshot-comparator/internal/compare"
	"snapshot-comparator/internal/env"
	"snapshot-comparator/internal/storage"
	"snapshot-comparator/internal/telemetry"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/xerrors"
)

type options struct {
	directory      string
	original       string
	latest         string
	tolerance      uint8
	extension      string
	concurrency    int
	taskTimeout    time.Duration
	keepGoing      bool
	failOnMismatch bool
	storageBackend string
	includePixels  bool
	pushgatewayURL string
	debug          bool
}

func parseFlags(flags *pflag.FlagSet, args []string) (*options, error) {
	o := &options{}
	flags.StringVarP(&o.directory, "directory", "d", env.OrDefault("DIRECTORY", compare.DefaultDirectory), "Directory holding the original and latest image trees")
	flags.StringVar(&o.original, "original", env.OrDefault("ORIGINAL_DIRECTORY", ""), "Original images directory (default <directory>/original)")
	flags.StringVar(&o.latest, "latest", env.OrDefault("LATEST_DIRECTORY", ""), "Latest images directory (default <directory>/latest)")
	flags.Uint8VarP(&o.tolerance, "tolerance", "t", env.OrDefault("TOLERANCE", uint8(compare.DefaultTolerance)), "Largest squared L*a*b* distance two pixels may have and still match (0 - 100)")
	flags.StringVarP(&o.extension, "extension", "e", env.OrDefault("EXTENSION", compare.DefaultExtension), "File extension of the images to compare, without the dot")
	flags.IntVarP(&o.concurrency, "concurrency", "c", env.OrDefault("CONCURRENCY", 0), "Image pairs compared at once (0 uses GOMAXPROCS)")
	flags.DurationVar(&o.taskTimeout, "task-timeout", env.OrDefault("TASK_TIMEOUT", time.Duration(0)), "Time limit for comparing one pair (0 disables it)")
	flags.BoolVar(&o.keepGoing, "keep-going", env.OrDefault("KEEP_GOING", false), "Compare every pair and report all failures instead of stopping at the first")
	flags.BoolVar(&o.failOnMismatch, "fail-on-mismatch", env.OrDefault("FAIL_ON_MISMATCH", false), "Exit non-zero when any pair has mismatched pixels")
	flags.StringVar(&o.storageBackend, "storage-backend", env.OrDefault("STORAGE_BACKEND", "file"), "Where images are read from (file or s3)")
	flags.BoolVar(&o.includePixels, "include-pixels", env.OrDefault("INCLUDE_PIXELS", false), "Include every mismatched pixel coordinate in the report")
	flags.StringVar(&o.pushgatewayURL, "pushgateway-url", env.OrDefault("PUSHGATEWAY_URL", ""), "Push run metrics to this Prometheus Pushgateway")
	flags.BoolVar(&o.debug, "debug", env.OrDefault("DEBUG", false), "Log as text instead of JSON")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, xerrors.Errorf("unexpected arguments: %v", flags.Args())
	}
	return o, nil
}

func (o *options) config() compare.Config {
	config := compare.NewConfig(o.directory)
	if o.original != "" {
		config.OriginalDirectory = o.original
	}
	if o.latest != "" {
		config.LatestDirectory = o.latest
	}
	config.Tolerance = o.tolerance
	config.Extension = o.extension
	config.Concurrency = o.concurrency
	config.TaskTimeout = o.taskTimeout
	config.KeepGoing = o.keepGoing
	return config
}

func newStorage(ctx context.Context, backend string) (storage.Storage, error) {
	switch backend {
	case "file":
		return storage.NewFileStorage(), nil
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket: os.Getenv("S3_BUCKET"),
		})
	default:
		return nil, xerrors.Errorf("unknown storage backend: %s", backend)
	}
}

func main() {
	if err := env.Load(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	o, err := parseFlags(pflag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(os.Stderr, o.debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	os.Exit(run(ctx, o, logger, os.Stdout))
}

func run(ctx context.Context, o *options, logger *slog.Logger, stdout io.Writer) int {
	provider, err := telemetry.Setup(ctx, telemetry.ConfigFromEnv("snapshot-comparator"))
	if err != nil {
		logger.Error("failed to set up telemetry", "error", err)
		return 1
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("failed to shutdown telemetry", "error", err)
		}
	}()

	s, err := newStorage(ctx, o.storageBackend)
	if err != nil {
		logger.Error("failed to create storage backend", "error", err)
		return 1
	}

	comparator, err := compare.NewComparator(s, telemetry.Logr(logger))
	if err != nil {
		logger.Error("failed to create comparator", "error", err)
		return 1
	}

	startedAt := time.Now()
	outcome, err := comparator.Run(ctx, o.config())
	report := compare.NewReport(outcome, err, startedAt, time.Now(), o.includePixels)

	if o.pushgatewayURL != "" {
		if err := telemetry.Push(ctx, o.pushgatewayURL, "snapshot-comparator", provider.Registry, telemetry.NewPushClient(30*time.Second)); err != nil {
			logger.Error("failed to push metrics", "error", err)
		}
	}

	if err != nil {
		logger.Error("comparison failed", "error", err, "kind", compare.KindOf(err).String())
		if outcome == nil {
			return 1
		}
	}

	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		logger.Error("failed to write report", "error", err)
		return 1
	}

	if err != nil {
		return 1
	}
	if o.failOnMismatch && report.Mismatched > 0 {
		logger.Info("images changed", "mismatched", report.Mismatched)
		return 1
	}
	return 0
}
