package telemetry

import (
	"context"
	"net/http"
	"snapshot-comparator/internal/retry"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"golang.org/x/xerrors"
)

// NewPushClient retries Pushgateway requests that fail while it is
// unavailable.
func NewPushClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &retry.Transport{
			Base:    http.DefaultTransport,
			Backoff: retry.Exponential(100*time.Millisecond, 5*time.Second, 5, nil),
			Policy:  retry.DefaultPolicy(),
		},
	}
}

// Push replaces the metrics of job on the Pushgateway at url with
// everything gatherer holds.
func Push(ctx context.Context, url string, job string, gatherer prometheus.Gatherer, client *http.Client) error {
	if err := push.New(url, job).Gatherer(gatherer).Client(client).PushContext(ctx); err != nil {
		return xerrors.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
