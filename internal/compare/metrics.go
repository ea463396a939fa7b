package compare

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/xerrors"
)

const instrumentationName = "snapshot-comparator"

type metrics struct {
	pairsCompared                   metric.Int64Counter
	mismatchedPixels                metric.Int64Counter
	failures                        metric.Int64Counter
	pairCompareDurationMicroSeconds metric.Int64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	pairsCompared, err := meter.Int64Counter("image_pairs_compared",
		metric.WithDescription("Image pairs compared, by whether any pixel mismatched"))
	if err != nil {
		return nil, xerrors.Errorf("failed to create counter: %w", err)
	}
	mismatchedPixels, err := meter.Int64Counter("mismatched_pixels",
		metric.WithDescription("Pixels whose colour distance exceeded the tolerance"))
	if err != nil {
		return nil, xerrors.Errorf("failed to create counter: %w", err)
	}
	failures, err := meter.Int64Counter("comparison_failures",
		metric.WithDescription("Fatal comparison errors, by kind"))
	if err != nil {
		return nil, xerrors.Errorf("failed to create counter: %w", err)
	}
	pairCompareDurationMicroSeconds, err := meter.Int64Histogram("image_pair_compare_duration_micro_seconds")
	if err != nil {
		return nil, xerrors.Errorf("failed to create histogram: %w", err)
	}

	return &metrics{
		pairsCompared:                   pairsCompared,
		mismatchedPixels:                mismatchedPixels,
		failures:                        failures,
		pairCompareDurationMicroSeconds: pairCompareDurationMicroSeconds,
	}, nil
}

func (m *metrics) recordPair(ctx context.Context, mismatched int, elapsed time.Duration) {
	m.pairsCompared.Add(ctx, 1, metric.WithAttributes(
		attribute.Key("identical").Bool(mismatched == 0),
	))
	m.mismatchedPixels.Add(ctx, int64(mismatched))
	m.pairCompareDurationMicroSeconds.Record(ctx, elapsed.Microseconds())
}

func (m *metrics) recordFailure(ctx context.Context, err error) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.Key("kind").String(KindOf(err).String()),
	))
}
