package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"snapshot-comparator/internal/compare"
	"snapshot-comparator/internal/env"
	"snapshot-comparator/internal/runnable"
	"snapshot-comparator/internal/storage"
	"snapshot-comparator/internal/telemetry"
	"syscall"
	"time"
)

func main() {
	if err := env.Load(".env"); err != nil {
		panic(err)
	}

	var directory string
	var storageBackend string
	var includePixels bool
	config := compare.Config{}

	flag.StringVar(&directory, "directory", env.OrDefault("DIRECTORY", compare.DefaultDirectory), "Directory holding the original and latest image trees")
	flag.StringVar(&config.OriginalDirectory, "original", env.OrDefault("ORIGINAL_DIRECTORY", ""), "Original images directory (default <directory>/original)")
	flag.StringVar(&config.LatestDirectory, "latest", env.OrDefault("LATEST_DIRECTORY", ""), "Latest images directory (default <directory>/latest)")
	tolerance := flag.Uint("tolerance", env.OrDefault("TOLERANCE", uint(compare.DefaultTolerance)), "Largest squared L*a*b* distance two pixels may have and still match (0 - 100)")
	flag.StringVar(&config.Extension, "extension", env.OrDefault("EXTENSION", compare.DefaultExtension), "File extension of the images to compare, without the dot")
	flag.IntVar(&config.Concurrency, "concurrency", env.OrDefault("CONCURRENCY", 0), "Image pairs compared at once (0 uses GOMAXPROCS)")
	flag.DurationVar(&config.TaskTimeout, "task-timeout", env.OrDefault("TASK_TIMEOUT", time.Duration(0)), "Time limit for comparing one pair (0 disables it)")
	flag.BoolVar(&config.KeepGoing, "keep-going", env.OrDefault("KEEP_GOING", true), "Compare every pair and report all failures instead of stopping at the first")
	flag.StringVar(&storageBackend, "storage-backend", env.OrDefault("STORAGE_BACKEND", "file"), "Where images are read from (file or s3)")
	flag.BoolVar(&includePixels, "include-pixels", env.OrDefault("INCLUDE_PIXELS", false), "Include every mismatched pixel coordinate in reports")
	flag.BoolVar(&runnable.Debug, "debug", env.OrDefault("DEBUG", false), "Log as text and serve pprof endpoints")
	flag.Parse()

	logger, err := telemetry.NewLogger(os.Stderr, runnable.Debug)
	if err != nil {
		panic(err)
	}

	if *tolerance > compare.MaxTolerance {
		logger.Error("tolerance out of range", "tolerance", *tolerance)
		os.Exit(1)
	}
	config.Tolerance = uint8(*tolerance)
	defaults := compare.NewConfig(directory)
	if config.OriginalDirectory == "" {
		config.OriginalDirectory = defaults.OriginalDirectory
	}
	if config.LatestDirectory == "" {
		config.LatestDirectory = defaults.LatestDirectory
	}
	if err := config.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	telemetryConfig := telemetry.ConfigFromEnv("snapshot-comparator")
	telemetryConfig.RuntimeMetrics = true
	provider, err := telemetry.Setup(ctx, telemetryConfig)
	if err != nil {
		logger.Error("unable to set up telemetry", "error", err)
		os.Exit(1)
	}

	var s storage.Storage
	switch storageBackend {
	case "file":
		s = storage.NewFileStorage()
	case "s3":
		s, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket: os.Getenv("S3_BUCKET"),
		})
		if err != nil {
			logger.Error("unable to create S3 storage backend", "error", err)
			os.Exit(1)
		}
	default:
		logger.Error("unknown storage backend", "backend", storageBackend)
		os.Exit(1)
	}

	comparator, err := compare.NewComparator(s, telemetry.Logr(logger).WithName("comparator"))
	if err != nil {
		logger.Error("unable to create comparator", "error", err)
		os.Exit(1)
	}

	runner := runnable.NewRunner(comparator, config, includePixels, telemetry.Logr(logger).WithName("runner"))
	server := runnable.NewServer(runner, provider.Registry, provider.Meter("snapshot-comparator"), logger)

	logger.Info("starting server")
	if err := server.Start(ctx); err != nil {
		logger.Error("problem running server", "error", err)
		os.Exit(1)
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
		os.Exit(1)
	}
}
