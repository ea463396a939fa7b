package telemetry

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"golang.org/x/xerrors"
)

// NewLogger writes JSON records keyed the way the OpenTelemetry log data
// model names them, or plain text when debug is set. The level comes from
// GO_LOG.
func NewLogger(w io.Writer, debug bool) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("GO_LOG"); ok {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, xerrors.Errorf("failed to parse log level: %w", err)
		}
	}
	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
		// https://opentelemetry.io/docs/specs/otel/logs/data-model/
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = "severitytext"
			case slog.MessageKey:
				a.Key = "body"
			}
			return a
		},
	}

	if debug {
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
}

// Logr adapts logger for code that takes a logr.Logger.
func Logr(logger *slog.Logger) logr.Logger {
	return logr.FromSlogHandler(logger.Handler())
}
