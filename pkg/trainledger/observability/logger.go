// Package observability provides structured logging, metrics, and tracing
// for the run and checkpoint lifecycle.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every log helper accepts a nil logger.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds lifecycle context to a logger.
// Returns a new logger with session_id and family fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "2f1c...", "PPO")
//	enriched.Info("resolving") // includes session_id, family
func EnrichLogger(logger *slog.Logger, sessionID, family string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("session_id", sessionID),
		slog.String("family", family),
	)
}

// LogRunAllocated logs a newly allocated run identifier.
func LogRunAllocated(logger *slog.Logger, family string, runID int, strategy string) {
	if logger == nil {
		return
	}
	logger.Info("run allocated",
		slog.String("family", family),
		slog.Int("run_id", runID),
		slog.String("strategy", strategy),
	)
}

// LogResolved logs the outcome of a lifecycle decision.
func LogResolved(logger *slog.Logger, state string, runID int, checkpointPath string) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.String("state", state),
		slog.Int("run_id", runID),
	}
	if checkpointPath != "" {
		attrs = append(attrs, slog.String("checkpoint", checkpointPath))
	}
	logger.Info("run context resolved", attrs...)
}

// LogEmptyRun warns that a selected run has no checkpoints.
func LogEmptyRun(logger *slog.Logger, runDir string, fallbackID int) {
	if logger == nil {
		return
	}
	logger.Warn("selected run has no checkpoints, starting fresh",
		slog.String("run_dir", runDir),
		slog.Int("fallback_run_id", fallbackID),
	)
}

// LogReusedRun warns that a fresh session was placed in a run directory
// that already holds checkpoints.
func LogReusedRun(logger *slog.Logger, runDir string, latestStep int64) {
	if logger == nil {
		return
	}
	logger.Warn("reused run already holds checkpoints, saves may overwrite them",
		slog.String("run_dir", runDir),
		slog.Int64("latest_step", latestStep),
	)
}

// LogUnknownRunID warns that a directory name carries no run identifier.
func LogUnknownRunID(logger *slog.Logger, name string) {
	if logger == nil {
		return
	}
	logger.Warn("run identifier not found in name",
		slog.String("name", name),
	)
}

// LogCustomPathRejected logs a custom artifact path that does not exist.
func LogCustomPathRejected(logger *slog.Logger, path string, err error) {
	if logger == nil {
		return
	}
	logger.Info("custom checkpoint path unusable, starting fresh",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// LogCheckpointSaved logs a checkpoint write.
func LogCheckpointSaved(logger *slog.Logger, path string, stepCount int64, sizeBytes int64) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("path", path),
		slog.Int64("step_count", stepCount),
		slog.Int64("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs a checkpoint failure.
func LogCheckpointError(logger *slog.Logger, runDir string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("checkpoint failed",
		slog.String("run_dir", runDir),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogTrainingStart logs the beginning of a training loop.
func LogTrainingStart(logger *slog.Logger, runDir string, fromStep int64, iterations int) {
	if logger == nil {
		return
	}
	logger.Info("training started",
		slog.String("run_dir", runDir),
		slog.Int64("from_step", fromStep),
		slog.Int("iterations", iterations),
	)
}

// LogIterationComplete logs one learn-then-save iteration.
func LogIterationComplete(logger *slog.Logger, iteration int, stepCount int64, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("iteration completed",
		slog.Int("iteration", iteration),
		slog.Int64("step_count", stepCount),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
