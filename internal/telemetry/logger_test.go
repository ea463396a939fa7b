package telemetry_test

import (
	"bytes"
	"encoding/json"
	"snapshot-comparator/internal/telemetry"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewLogger(t *testing.T) {
	t.Setenv("GO_LOG", "info")

	var buffer bytes.Buffer
	logger, err := telemetry.NewLogger(&buffer, false)
	if err != nil {
		t.Fatal(err)
	}
	telemetry.Logr(logger).Info("Compared images", "mismatched", 3)

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatal(err)
	}
	delete(record, "time")

	want := map[string]any{
		"severitytext": "INFO",
		"body":         "Compared images",
		"mismatched":   float64(3),
	}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	t.Setenv("GO_LOG", "warn")

	var buffer bytes.Buffer
	logger, err := telemetry.NewLogger(&buffer, false)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("dropped")

	if diff := cmp.Diff("", buffer.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	t.Setenv("GO_LOG", "loud")

	if _, err := telemetry.NewLogger(&bytes.Buffer{}, false); err == nil {
		t.Fatal("expected error")
	}
}
