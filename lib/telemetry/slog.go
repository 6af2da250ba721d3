package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// InitSlog installs a colored slog handler as the default logger.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

// SlogAPI implements API using the log/slog package.
type SlogAPI struct{}

// formatParams turns report params into slog attributes. Errors are logged
// under "err", a string followed by another param is a key/value pair and
// anything left over is numbered.
func (SlogAPI) formatParams(out *[]any, params []any) {
	for i := 0; i < len(params); i++ {
		switch p := params[i].(type) {
		case error:
			*out = append(*out, "err", p.Error())
		case string:
			if i+1 < len(params) {
				*out = append(*out, p, params[i+1])
				i++
				continue
			}
			*out = append(*out, fmt.Sprintf("params.%d", i), p)
		default:
			*out = append(*out, fmt.Sprintf("params.%d", i), p)
		}
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	slog.Debug(message, remainingPairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}
