package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger returns a debug-level JSON logger and a func returning the
// records written so far.
func captureLogger() (*slog.Logger, func() []map[string]any) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() []map[string]any {
		var records []map[string]any
		for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			var m map[string]any
			if err := json.Unmarshal(line, &m); err == nil {
				records = append(records, m)
			}
		}
		return records
	}
}

func lastRecord(t *testing.T, records func() []map[string]any) map[string]any {
	t.Helper()
	all := records()
	require.NotEmpty(t, all)
	return all[len(all)-1]
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds session_id and family", func(t *testing.T) {
		logger, records := captureLogger()

		EnrichLogger(logger, "sess-1", "PPO").Info("hello")

		rec := lastRecord(t, records)
		assert.Equal(t, "sess-1", rec["session_id"])
		assert.Equal(t, "PPO", rec["family"])
		assert.Equal(t, "hello", rec["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "s", "A2C"))
	})
}

func TestLogRunAllocated(t *testing.T) {
	logger, records := captureLogger()

	LogRunAllocated(logger, "A2C", 3, "dircount")

	rec := lastRecord(t, records)
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "run allocated", rec["msg"])
	assert.Equal(t, float64(3), rec["run_id"]) // JSON decodes ints as float64
	assert.Equal(t, "dircount", rec["strategy"])
}

func TestLogResolved(t *testing.T) {
	t.Run("includes checkpoint when present", func(t *testing.T) {
		logger, records := captureLogger()

		LogResolved(logger, "resume_from_registry", 1, "models/A2C/Run1/9000.zip")

		rec := lastRecord(t, records)
		assert.Equal(t, "resume_from_registry", rec["state"])
		assert.Equal(t, "models/A2C/Run1/9000.zip", rec["checkpoint"])
	})

	t.Run("omits checkpoint for fresh runs", func(t *testing.T) {
		logger, records := captureLogger()

		LogResolved(logger, "fresh", 4, "")

		rec := lastRecord(t, records)
		_, ok := rec["checkpoint"]
		assert.False(t, ok)
	})
}

func TestLogEmptyRun(t *testing.T) {
	logger, records := captureLogger()

	LogEmptyRun(logger, "models/PPO/Run2", 1)

	rec := lastRecord(t, records)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "models/PPO/Run2", rec["run_dir"])
	assert.Equal(t, float64(1), rec["fallback_run_id"])
}

func TestLogCheckpointHelpers(t *testing.T) {
	logger, records := captureLogger()

	LogCheckpointSaved(logger, "Run1/3000.zip", 3000, 42)
	LogCheckpointError(logger, "Run1", "save", errors.New("disk full"))
	LogUnknownRunID(logger, "scratch")
	LogCustomPathRejected(logger, "/nope.zip", errors.New("missing"))

	all := records()
	require.Len(t, all, 4)
	assert.Equal(t, "DEBUG", all[0]["level"])
	assert.Equal(t, float64(3000), all[0]["step_count"])
	assert.Equal(t, "ERROR", all[1]["level"])
	assert.Equal(t, "disk full", all[1]["error"])
	assert.Equal(t, "scratch", all[2]["name"])
	assert.Equal(t, "/nope.zip", all[3]["path"])
}

func TestLogTrainingHelpers(t *testing.T) {
	logger, records := captureLogger()

	LogTrainingStart(logger, "models/A2C/Run1", 9000, 29)
	LogIterationComplete(logger, 1, 12000, 3.5)

	all := records()
	require.Len(t, all, 2)
	assert.Equal(t, float64(9000), all[0]["from_step"])
	assert.Equal(t, float64(29), all[0]["iterations"])
	assert.Equal(t, float64(12000), all[1]["step_count"])
	assert.Equal(t, 3.5, all[1]["duration_ms"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRunAllocated(nil, "A2C", 1, "counter")
		LogResolved(nil, "fresh", 1, "")
		LogEmptyRun(nil, "d", 1)
		LogUnknownRunID(nil, "x")
		LogCustomPathRejected(nil, "p", errors.New("e"))
		LogCheckpointSaved(nil, "p", 1, 1)
		LogCheckpointError(nil, "d", "save", errors.New("e"))
		LogTrainingStart(nil, "d", 0, 29)
		LogIterationComplete(nil, 1, 3000, 1.5)
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 5*time.Millisecond)
}
