package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

// NewHandler builds a slog handler of the given type writing to w.
func NewHandler(w io.Writer, loggingType string, logLevelName string) (slog.Handler, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(logLevelName)); err != nil {
		return nil, fmt.Errorf("could not parse log level: %w", err)
	}

	switch loggingType {
	case JSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}), nil
	case Text:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}), nil
	case Tint:
		return tint.NewHandler(w, &tint.Options{Level: logLevel}), nil
	default:
		return nil, fmt.Errorf("unknown logging type: %s", loggingType)
	}
}

// Initialize installs the default slog logger writing to stderr.
func Initialize(loggingType string, logLevelName string) error {
	handler, err := NewHandler(os.Stderr, loggingType, logLevelName)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(handler))
	slog.Debug("logging initialized", "type", loggingType, "logLevel", logLevelName)
	return nil
}
