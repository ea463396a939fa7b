package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"snapshot-comparator/internal/compare"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func writePNG(t *testing.T, p string, c color.NRGBA) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	o, err := parseFlags(pflag.NewFlagSet("compare", pflag.ContinueOnError), []string{
		"-d", "screenshots",
		"--latest", "new",
		"-t", "12",
		"-e", "jpg",
		"-c", "2",
		"--task-timeout", "3s",
		"--keep-going",
	})
	if err != nil {
		t.Fatal(err)
	}

	want := compare.Config{
		OriginalDirectory: filepath.Join("screenshots", "original"),
		LatestDirectory:   "new",
		Extension:         "jpg",
		Tolerance:         12,
		Concurrency:       2,
		TaskTimeout:       3 * time.Second,
		KeepGoing:         true,
	}
	if diff := cmp.Diff(want, o.config()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseFlagsRejectsOutOfRangeTolerance(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("compare", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	if _, err := parseFlags(flags, []string{"-t", "256"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "original", "home.png"), color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	writePNG(t, filepath.Join(dir, "latest", "home.png"), color.NRGBA{R: 200, G: 2, B: 3, A: 255})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := &options{
		directory:      dir,
		tolerance:      compare.DefaultTolerance,
		extension:      compare.DefaultExtension,
		storageBackend: "file",
		includePixels:  true,
	}

	var stdout bytes.Buffer
	if diff := cmp.Diff(0, run(context.Background(), o, logger, &stdout)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	var report compare.Report
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(16, len(report.Pairs[0].MismatchedPixels)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	o.failOnMismatch = true
	if diff := cmp.Diff(1, run(context.Background(), o, logger, io.Discard)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRunFailure(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o := &options{
		directory:      t.TempDir(),
		tolerance:      compare.DefaultTolerance,
		extension:      compare.DefaultExtension,
		storageBackend: "file",
	}

	var stdout bytes.Buffer
	if diff := cmp.Diff(1, run(context.Background(), o, logger, &stdout)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("", stdout.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	o.storageBackend = "ftp"
	if diff := cmp.Diff(1, run(context.Background(), o, logger, &stdout)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
