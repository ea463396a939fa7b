package retry

import (
	"math"
	"math/rand/v2"
	"time"

	"golang.org/x/exp/constraints"
)

// Backoff returns how long to wait before the given retry, and false once
// no more retries are allowed.
type Backoff interface {
	Next(retry uint) (time.Duration, bool)
}

type noRetry struct{}

func NoRetry() Backoff {
	return noRetry{}
}

func (noRetry) Next(uint) (time.Duration, bool) {
	return 0, false
}

// Jitter picks a delay in [0, n).
type Jitter func(n int64) int64

type exponential struct {
	base       time.Duration
	maxDelay   time.Duration
	maxRetries uint
	jitter     Jitter
}

// Exponential doubles base on every retry up to maxDelay and applies full jitter.
// A nil jitter draws from math/rand.
func Exponential(base time.Duration, maxDelay time.Duration, maxRetries uint, jitter Jitter) Backoff {
	if jitter == nil {
		jitter = rand.Int64N
	}
	return &exponential{
		base:       base,
		maxDelay:   maxDelay,
		maxRetries: maxRetries,
		jitter:     jitter,
	}
}

func (e *exponential) Next(retry uint) (time.Duration, bool) {
	if retry >= e.maxRetries {
		return 0, false
	}

	if e.base <= 0 || e.maxDelay <= 0 {
		return 0, true
	}

	ceiling := int64(e.maxDelay)
	if retry < 63 && int64(1)<<retry <= math.MaxInt64/int64(e.base) {
		ceiling = clamp(int64(1)<<retry*int64(e.base), 1, int64(e.maxDelay))
	}
	return time.Duration(e.jitter(ceiling)), true
}

func clamp[T constraints.Ordered](v T, lo T, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
