package retry_test

import (
	"fmt"
	"math"
	"runtime"
	"snapshot-comparator/internal/retry"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func identity(n int64) int64 {
	return n
}

func TestBackoffNext(t *testing.T) {
	type in struct {
		first uint
	}

	type want struct {
		delay time.Duration
		ok    bool
	}

	tests := []struct {
		name     string
		receiver retry.Backoff
		in       in
		want     want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.NoRetry(),
			in{
				0,
			},
			want{
				0,
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(time.Second, time.Minute, 0, identity),
			in{
				0,
			},
			want{
				0,
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(time.Second, time.Minute, 3, identity),
			in{
				0,
			},
			want{
				time.Second,
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(time.Second, time.Minute, 3, identity),
			in{
				2,
			},
			want{
				4 * time.Second,
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(time.Second, time.Minute, 3, identity),
			in{
				3,
			},
			want{
				0,
				false,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(time.Second, 3*time.Second, 5, identity),
			in{
				4,
			},
			want{
				3 * time.Second,
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(100*time.Second, math.MaxInt64, 100, identity),
			in{
				40,
			},
			want{
				math.MaxInt64,
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(time.Second, math.MaxInt64, 100, identity),
			in{
				64,
			},
			want{
				math.MaxInt64,
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(0, time.Minute, 2, identity),
			in{
				1,
			},
			want{
				0,
				true,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			retry.Exponential(time.Second, time.Minute, 3, func(n int64) int64 { return n / 2 }),
			in{
				1,
			},
			want{
				time.Second,
				true,
			},
		},
	}
	for _, tt := range tests {
		name := tt.name
		receiver := tt.receiver
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			delay, ok := receiver.Next(in.first)
			if diff := cmp.Diff(want.delay, delay); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want.ok, ok); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestExponentialDefaultJitterStaysBelowCeiling(t *testing.T) {
	t.Parallel()

	b := retry.Exponential(time.Millisecond, time.Second, 10, nil)
	for i := 0; i < 100; i++ {
		delay, ok := b.Next(3)
		if !ok {
			t.Fatal("expected retry to be allowed")
		}
		if delay < 0 || delay >= 8*time.Millisecond {
			t.Fatalf("delay out of range: %s", delay)
		}
	}
}
