package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rdtagger/pkg/config"
)

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{
		logger: &zlog,
		fields: make(map[string]interface{}),
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(os.TempDir(), "rdtagger-test.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
			if tt.cfg.File != "" {
				os.Remove(tt.cfg.File)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNewWithWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Info("hidden message")
	log.Warn("visible message")

	assert.NotContains(t, buf.String(), "hidden message")
	assert.Contains(t, buf.String(), "visible message")
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.
		WithField("collection_id", int64(42)).
		WithFields(map[string]interface{}{
			"page":  3,
			"tags":  []string{"go", "api"},
			"wait":  2 * time.Second,
			"dry":   true,
			"ratio": 0.5,
		}).
		Info("chained fields")

	output := buf.String()
	assert.Contains(t, output, "chained fields")
	assert.Contains(t, output, `"collection_id":42`)
	assert.Contains(t, output, `"page":3`)
	assert.Contains(t, output, `"tags":["go","api"]`)
	assert.Contains(t, output, `"dry":true`)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf)
	_ = parent.WithField("child_only", "x")

	parent.Info("parent message")
	assert.NotContains(t, buf.String(), "child_only")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	assert.Equal(t, Logger(logger), logger.WithError(nil))

	logger.WithError(errors.New("boom")).Error("error occurred")
	assert.Contains(t, buf.String(), "error occurred")
	assert.Contains(t, buf.String(), "boom")
}

func TestHelpers(t *testing.T) {
	log := NewTestLogger()

	LogRateLimit(log, "window_full", 3*time.Second)
	LogItemOutcome(log, 7, "Example", "tagged", []string{"go"}, nil)
	LogItemOutcome(log, 8, "Broken", "failed", nil, errors.New("ai down"))
	LogRequest(log, "GET", "http://x", 503, time.Millisecond)

	warns := log.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "window_full", warns[0].Fields["reason"])

	errs := log.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 2)
	assert.EqualError(t, errs[0].Error, "ai down")
	assert.Equal(t, int64(8), errs[0].Fields["item_id"])
	assert.True(t, log.HasMessage("Item processed"))

	LogRunSummary(log, 2, 1, 1, 0, time.Second)
	infos := log.GetMessagesByLevel("INFO")
	require.Len(t, infos, 1)
	assert.Equal(t, 2, infos[0].Fields["total"])
}

func TestTestLoggerSharesRecorder(t *testing.T) {
	log := NewTestLogger()
	child := log.WithField("a", 1).WithField("b", 2)
	child.Info("from child")

	messages := log.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, 1, messages[0].Fields["a"])
	assert.Equal(t, 2, messages[0].Fields["b"])
	assert.True(t, log.HasMessageContaining("child"))

	log.Clear()
	assert.Empty(t, log.GetMessages())
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, Initialize(&config.LoggingConfig{Level: "debug"}))
	assert.NotNil(t, GetLogger())

	// must not panic
	Debug("debug message")
	Info("info message")
	WithField("key", "value").Info("with field")
	WithError(errors.New("test")).Error("with error")
}
