package compare

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	diffimage "snapshot-comparator/internal/diff/image"
	"snapshot-comparator/internal/storage"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

type Comparator struct {
	storage storage.Storage
	log     logr.Logger
	tracer  trace.Tracer
	metrics *metrics
}

// NewComparator reads images through s. Metrics and spans go to the global
// OpenTelemetry providers.
func NewComparator(s storage.Storage, log logr.Logger) (*Comparator, error) {
	m, err := newMetrics(otel.Meter(instrumentationName))
	if err != nil {
		return nil, xerrors.Errorf("failed to create metrics: %w", err)
	}

	return &Comparator{
		storage: s,
		log:     log,
		tracer:  otel.Tracer(instrumentationName),
		metrics: m,
	}, nil
}

// Run resolves both roots, pairs their images and compares every pair.
// Discovery fails before any image is decoded. With cfg.KeepGoing, a run
// whose only failures are per-pair returns the partial Outcome together with
// a *PairFailuresError.
func (c *Comparator) Run(ctx context.Context, cfg Config) (*Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return nil, xerrors.Errorf("invalid config: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.String("original", cfg.OriginalDirectory),
		attribute.String("latest", cfg.LatestDirectory),
	))
	defer span.End()

	outcome, err := c.run(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.metrics.recordFailure(ctx, err)
		return outcome, err
	}

	return outcome, nil
}

func (c *Comparator) run(ctx context.Context, cfg Config) (*Outcome, error) {
	roots, err := ResolveDirectories(ctx, c.storage, cfg.OriginalDirectory, cfg.LatestDirectory)
	if err != nil {
		return nil, err
	}

	originals, latests, err := FindFiles(ctx, c.storage, roots, cfg.Extension)
	if err != nil {
		return nil, err
	}

	pairs, err := PairFiles(c.storage, roots, originals, latests)
	if err != nil {
		return nil, err
	}
	c.log.Info("Paired images", "original", roots.Original, "latest", roots.Latest, "pairs", len(pairs))

	return c.ComparePairs(ctx, pairs, cfg)
}

// ComparePairs compares at most cfg.Concurrency pairs at once. Results are
// returned in the order of pairs. Unless cfg.KeepGoing is set, the first
// failure cancels the pairs still running and is returned alone.
func (c *Comparator) ComparePairs(ctx context.Context, pairs []Pair, cfg Config) (*Outcome, error) {
	results := make([]*Result, len(pairs))
	failures := make([]error, len(pairs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.concurrency())

	for i, pair := range pairs {
		if egCtx.Err() != nil {
			break
		}

		eg.Go(func() error {
			result, err := c.runTask(egCtx, pair, cfg)
			if err != nil {
				if cfg.KeepGoing {
					failures[i] = err
					return nil
				}
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, xerrors.Errorf("comparison cancelled: %w", err)
	}

	outcome := &Outcome{
		Results: make([]Result, 0, len(pairs)),
	}
	for i, pair := range pairs {
		if failures[i] != nil {
			outcome.Failures = append(outcome.Failures, PairFailure{
				Original: pair.Original,
				Latest:   pair.Latest,
				Err:      failures[i],
			})
			continue
		}
		outcome.Results = append(outcome.Results, *results[i])
	}

	if len(outcome.Failures) > 0 {
		return outcome, &PairFailuresError{Failures: outcome.Failures}
	}
	return outcome, nil
}

type taskResult struct {
	result *Result
	err    error
}

// runTask runs comparePair on its own goroutine so that a timeout releases
// the caller even when decoding never returns.
func (c *Comparator) runTask(ctx context.Context, pair Pair, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "ComparePair", trace.WithAttributes(
		attribute.String("original", pair.Original),
		attribute.String("latest", pair.Latest),
	))
	defer span.End()

	taskCtx := ctx
	if cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, cfg.TaskTimeout)
		defer cancel()
	}

	done := make(chan taskResult, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- taskResult{err: &WorkerPanicError{
					Stage: fmt.Sprintf("comparing '%s' and '%s'", pair.Original, pair.Latest),
					Value: v,
					Stack: debug.Stack(),
				}}
			}
		}()

		result, err := c.comparePair(taskCtx, pair, cfg.tolerance())
		done <- taskResult{result: result, err: err}
	}()

	var r taskResult
	select {
	case r = <-done:
	case <-taskCtx.Done():
		select {
		case r = <-done:
		default:
			r.err = ctx.Err()
			if r.err == nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
				r.err = &TaskTimeoutError{
					Original: pair.Original,
					Latest:   pair.Latest,
					Timeout:  cfg.TaskTimeout,
				}
			}
		}
	}

	if r.err != nil {
		span.RecordError(r.err)
		span.SetStatus(codes.Error, r.err.Error())
		c.log.Error(r.err, "Failed to compare images", "original", pair.Original, "latest", pair.Latest)
		return nil, r.err
	}
	return r.result, nil
}

func (c *Comparator) comparePair(ctx context.Context, pair Pair, tolerance float32) (*Result, error) {
	start := time.Now()

	original, err := LoadImage(ctx, c.storage, pair.Original)
	if err != nil {
		return nil, err
	}
	latest, err := LoadImage(ctx, c.storage, pair.Latest)
	if err != nil {
		return nil, err
	}

	if !diffimage.DimensionsMatch(original.Pixels, latest.Pixels) {
		return nil, &DimensionMismatchError{
			Original:       pair.Original,
			Latest:         pair.Latest,
			OriginalWidth:  original.Pixels.Bounds().Dx(),
			OriginalHeight: original.Pixels.Bounds().Dy(),
			LatestWidth:    latest.Pixels.Bounds().Dx(),
			LatestHeight:   latest.Pixels.Bounds().Dy(),
		}
	}

	diff := diffimage.NewLabDiff(tolerance).Calculate(original.Pixels, latest.Pixels)
	c.metrics.recordPair(ctx, len(diff.MismatchedPixels), time.Since(start))
	c.log.V(1).Info("Compared images", "original", pair.Original, "latest", pair.Latest, "mismatched", len(diff.MismatchedPixels))

	return &Result{
		Original:         pair.Original,
		Latest:           pair.Latest,
		MismatchedPixels: diff.MismatchedPixels,
		DiffAmount:       diff.DiffAmount,
	}, nil
}
