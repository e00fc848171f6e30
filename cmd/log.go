package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/log"

	"github.com/sarchlab/rv32core/config"
)

// Logger creates a logfmt logger writing to w at the given level.
func Logger(w io.Writer, lvl slog.Level) log.Logger {
	return log.NewLogger(log.LogfmtHandlerWithLevel(w, lvl))
}

// LoggerFromString is like Logger but takes a level name such as "info".
func LoggerFromString(w io.Writer, level string) (log.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return Logger(w, lvl), nil
}
