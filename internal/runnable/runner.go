package runnable

import (
	"context"
	"snapshot-comparator/internal/compare"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

// Runner serialises comparison runs and keeps the report of the last one in
// memory.
type Runner struct {
	comparator    *compare.Comparator
	config        compare.Config
	includePixels bool
	log           logr.Logger

	running sync.Mutex
	last    atomic.Pointer[compare.Report]
}

func NewRunner(comparator *compare.Comparator, config compare.Config, includePixels bool, log logr.Logger) *Runner {
	return &Runner{
		comparator:    comparator,
		config:        config,
		includePixels: includePixels,
		log:           log,
	}
}

// TryRun compares once unless a run is already in progress, in which case
// it returns false without waiting.
func (r *Runner) TryRun(ctx context.Context) (*compare.Report, bool) {
	if !r.running.TryLock() {
		return nil, false
	}
	defer r.running.Unlock()

	startedAt := time.Now()
	outcome, err := r.comparator.Run(ctx, r.config)
	report := compare.NewReport(outcome, err, startedAt, time.Now(), r.includePixels)
	if err != nil {
		r.log.Error(err, "Comparison failed", "kind", compare.KindOf(err).String())
	} else {
		r.log.Info("Comparison finished", "compared", report.Compared, "mismatched", report.Mismatched)
	}

	r.last.Store(report)
	return report, true
}

// Run is TryRun for the scheduler, which already skips overlapping runs.
func (r *Runner) Run(ctx context.Context) {
	if _, ok := r.TryRun(ctx); !ok {
		r.log.Info("Skipped comparison, previous run still in progress")
	}
}

// Last returns nil until the first run has finished.
func (r *Runner) Last() *compare.Report {
	return r.last.Load()
}
