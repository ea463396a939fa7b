package compare

import (
	diffimage "snapshot-comparator/internal/diff/image"
	"time"
)

// Result is the comparison of one pair. MismatchedPixels is in row-major
// order and empty when the pair matches within tolerance.
type Result struct {
	Original         string
	Latest           string
	MismatchedPixels []diffimage.PixelCoord
	DiffAmount       float64
}

func (r Result) Identical() bool {
	return len(r.MismatchedPixels) == 0
}

// Outcome holds results in pairing order, whatever order they completed in.
// Failures is only populated when the run kept going past failed pairs.
type Outcome struct {
	Results  []Result
	Failures []PairFailure
}

func (o *Outcome) Mismatched() []Result {
	var mismatched []Result
	for _, r := range o.Results {
		if !r.Identical() {
			mismatched = append(mismatched, r)
		}
	}
	return mismatched
}

type Report struct {
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Compared   int             `json:"compared"`
	Mismatched int             `json:"mismatched"`
	Pairs      []PairReport    `json:"pairs"`
	Failures   []FailureReport `json:"failures,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorKind  string          `json:"errorKind,omitempty"`
}

type PairReport struct {
	Original             string                 `json:"original"`
	Latest               string                 `json:"latest"`
	MismatchedPixelCount int                    `json:"mismatchedPixelCount"`
	DiffAmount           float64                `json:"diffAmount"`
	MismatchedPixels     []diffimage.PixelCoord `json:"mismatchedPixels,omitempty"`
}

type FailureReport struct {
	Original string `json:"original"`
	Latest   string `json:"latest"`
	Error    string `json:"error"`
	Kind     string `json:"kind"`
}

// NewReport summarises a run. outcome may be nil when the run failed fast.
func NewReport(outcome *Outcome, err error, startedAt time.Time, finishedAt time.Time, includePixels bool) *Report {
	report := &Report{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Pairs:      []PairReport{},
	}

	if outcome != nil {
		for _, r := range outcome.Results {
			pair := PairReport{
				Original:             r.Original,
				Latest:               r.Latest,
				MismatchedPixelCount: len(r.MismatchedPixels),
				DiffAmount:           r.DiffAmount,
			}
			if includePixels {
				pair.MismatchedPixels = r.MismatchedPixels
			}
			if !r.Identical() {
				report.Mismatched++
			}
			report.Pairs = append(report.Pairs, pair)
		}
		report.Compared = len(outcome.Results)

		for _, f := range outcome.Failures {
			report.Failures = append(report.Failures, FailureReport{
				Original: f.Original,
				Latest:   f.Latest,
				Error:    f.Err.Error(),
				Kind:     KindOf(f.Err).String(),
			})
		}
	}

	if err != nil {
		report.Error = err.Error()
		report.ErrorKind = KindOf(err).String()
	}

	return report
}
