package compare

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

const (
	DefaultDirectory = "images"
	DefaultExtension = "png"
	DefaultTolerance = 5
	MaxTolerance     = 100
)

// Config is the resolved configuration of a single comparison run.
type Config struct {
	OriginalDirectory string
	LatestDirectory   string
	// Extension without a leading dot; matched case-sensitively
	Extension string
	// Tolerance is the largest squared L*a*b* distance two pixels may have
	// and still match, 0 to 100
	Tolerance uint8
	// Concurrency caps the number of pairs compared at once; 0 means
	// GOMAXPROCS
	Concurrency int
	// TaskTimeout bounds the work on a single pair; 0 disables it
	TaskTimeout time.Duration
	// KeepGoing collects every per-pair failure instead of stopping at the
	// first one
	KeepGoing bool
}

// NewConfig lays the original and latest trees out below directory.
func NewConfig(directory string) Config {
	return Config{
		OriginalDirectory: filepath.Join(directory, "original"),
		LatestDirectory:   filepath.Join(directory, "latest"),
		Extension:         DefaultExtension,
		Tolerance:         DefaultTolerance,
	}
}

func (c Config) Validate() error {
	if c.OriginalDirectory == "" || c.LatestDirectory == "" {
		return xerrors.New("original and latest directories must be set")
	}
	if c.Tolerance > MaxTolerance {
		return xerrors.Errorf("tolerance must be between 0 and %d, got %d", MaxTolerance, c.Tolerance)
	}
	if c.Extension == "" {
		return xerrors.New("extension must not be empty")
	}
	if strings.HasPrefix(c.Extension, ".") {
		return xerrors.Errorf("extension must not start with a dot: %s", c.Extension)
	}
	if c.Concurrency < 0 {
		return xerrors.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.TaskTimeout < 0 {
		return xerrors.Errorf("task timeout must not be negative, got %s", c.TaskTimeout)
	}
	return nil
}

func (c Config) tolerance() float32 {
	return float32(c.Tolerance)
}

func (c Config) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	return runtime.GOMAXPROCS(0)
}
