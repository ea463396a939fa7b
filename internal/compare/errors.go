package compare

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind groups fatal errors by who has to act on them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDiscovery covers missing roots and trees that do not pair up
	KindDiscovery
	// KindIO covers files that cannot be read or decoded
	KindIO
	// KindPrecondition covers pairs whose dimensions differ
	KindPrecondition
	// KindInfrastructure covers worker panics and timeouts
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindDiscovery:
		return "discovery"
	case KindIO:
		return "io"
	case KindPrecondition:
		return "precondition"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

type MissingDirectory struct {
	Name string
	Path string
}

type MissingDirectoriesError struct {
	Missing []MissingDirectory
}

func (e *MissingDirectoriesError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("%s: '%s'", m.Name, m.Path))
	}
	return fmt.Sprintf("could not find directories: %s", strings.Join(parts, ", "))
}

type ImageCountMismatchError struct {
	Original int
	Latest   int
}

func (e *ImageCountMismatchError) Error() string {
	return fmt.Sprintf("number of images in original and latest directories do not match. Original: %d, Latest: %d.", e.Original, e.Latest)
}

// ImageNotPairedError lists the root-relative paths present on only one side.
// Outside holds listed locations that are not below their root at all.
type ImageNotPairedError struct {
	Original []string
	Latest   []string
	Outside  []string
}

func (e *ImageNotPairedError) Error() string {
	var b strings.Builder
	b.WriteString("not all images are paired up between original and latest")
	if len(e.Original) > 0 {
		fmt.Fprintf(&b, "; only in original: %s", strings.Join(e.Original, ", "))
	}
	if len(e.Latest) > 0 {
		fmt.Fprintf(&b, "; only in latest: %s", strings.Join(e.Latest, ", "))
	}
	if len(e.Outside) > 0 {
		fmt.Fprintf(&b, "; not below their root: %s", strings.Join(e.Outside, ", "))
	}
	return b.String()
}

// IOReadError keeps the decoder's own message so it can be shown verbatim.
type IOReadError struct {
	Location string
	Message  string
	Err      error
}

func newIOReadError(location string, err error) *IOReadError {
	return &IOReadError{
		Location: location,
		Message:  err.Error(),
		Err:      err,
	}
}

func (e *IOReadError) Error() string {
	return fmt.Sprintf("issue parsing file at location: '%s'. Message: '%s'", e.Location, e.Message)
}

func (e *IOReadError) Unwrap() error {
	return e.Err
}

type DimensionMismatchError struct {
	Original       string
	Latest         string
	OriginalWidth  int
	OriginalHeight int
	LatestWidth    int
	LatestHeight   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions do not match: '%s' (%dx%d) and '%s' (%dx%d)",
		e.Original, e.OriginalWidth, e.OriginalHeight, e.Latest, e.LatestWidth, e.LatestHeight)
}

// WorkerPanicError reports a comparison task that died rather than failed.
type WorkerPanicError struct {
	Stage string
	Value any
	Stack []byte
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("worker failed while %s: panic: %v", e.Stage, e.Value)
}

type TaskTimeoutError struct {
	Original string
	Latest   string
	Timeout  time.Duration
}

func (e *TaskTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s comparing '%s' and '%s'", e.Timeout, e.Original, e.Latest)
}

type PairFailure struct {
	Original string `json:"original"`
	Latest   string `json:"latest"`
	Err      error  `json:"-"`
}

// PairFailuresError collects every per-pair failure of a run that kept going.
type PairFailuresError struct {
	Failures []PairFailure
}

func (e *PairFailuresError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Err.Error())
	}
	return fmt.Sprintf("%d image pair(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *PairFailuresError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// KindOf classifies err. Aggregates take the kind of their first failure.
func KindOf(err error) Kind {
	var (
		missing    *MissingDirectoriesError
		count      *ImageCountMismatchError
		notPaired  *ImageNotPairedError
		ioRead     *IOReadError
		dimensions *DimensionMismatchError
		panicked   *WorkerPanicError
		timeout    *TaskTimeoutError
		failures   *PairFailuresError
	)

	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &failures) && len(failures.Failures) > 0:
		return KindOf(failures.Failures[0].Err)
	case errors.As(err, &missing), errors.As(err, &count), errors.As(err, &notPaired):
		return KindDiscovery
	case errors.As(err, &ioRead):
		return KindIO
	case errors.As(err, &dimensions):
		return KindPrecondition
	case errors.As(err, &panicked), errors.As(err, &timeout):
		return KindInfrastructure
	default:
		return KindUnknown
	}
}
