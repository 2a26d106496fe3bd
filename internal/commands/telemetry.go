package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-payload-sync/internal/logging"
	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// TelemetryStatus is the outcome of one handler run.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// Event returns the log event name for the status.
func (s TelemetryStatus) Event() string {
	return "command.execute." + string(s)
}

// TelemetryInfo is handed to a Telemetry callback once a run finishes.
// Fields holds the command, run_id and message fields of the run.
type TelemetryInfo struct {
	Command   string
	Operation string
	Fields    map[string]any
	Duration  time.Duration
	Error     error
	Status    TelemetryStatus
	Logger    interfaces.Logger
}

// Telemetry observes finished runs.
type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs one line per run: Info for success, Error with the
// text code otherwise.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = logging.Ensure(logger)
	return func(_ context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields)
		args := []any{"duration_ms", info.Duration.Milliseconds()}
		if info.Status == TelemetryStatusSuccess {
			entry.Info(info.Status.Event(), args...)
			return
		}
		args = append(args, "error", info.Error)
		if code := TextCode(info.Error); code != "" && info.Status == TelemetryStatusFailed {
			args = append(args, "code", code)
		}
		entry.Error(info.Status.Event(), args...)
	}
}
