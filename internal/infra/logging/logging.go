// Package logging configures the process-wide slog logger. Both binaries
// call SetupJSON once at startup, before anything else logs.
package logging

import (
	"log/slog"
	"os"
)

// SetupJSON routes the default slog logger to JSON on stdout at the given
// level. The level comes from APP_LOG_LEVEL through the config layer.
func SetupJSON(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
