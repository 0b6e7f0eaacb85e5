package run

import (
	"log/slog"

	"github.com/raphaelgruber/taskkit/internal/tracker"
)

// Reporter is the progress callback long-running operations invoke
// periodically. Percent is on a 0-100 scale; operations map their own
// sub-stages onto it (e.g. fetch 0-50, upload 50-100). A reporter must
// never abort the host operation.
type Reporter func(percent float64, message string)

// TrackerReporter returns a Reporter that forwards progress to the
// tracker for the given task. Delivery failure degrades to a log line,
// not an operation abort.
func TrackerReporter(tr *tracker.Tracker, taskID string) Reporter {
	return func(percent float64, message string) {
		defer func() {
			if r := recover(); r != nil {
				slog.Warn("progress delivery panicked", "task_id", taskID, "panic", r)
			}
		}()
		if !tr.UpdateProgress(taskID, percent, message) {
			slog.Warn("progress update dropped", "task_id", taskID, "percent", percent)
		}
	}
}
