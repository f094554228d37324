package deck

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name           string
		level          LogLevel
		setupFunc      func(*Logger)
		expectedOutput []string
		notExpected    []string
	}{
		{
			name:  "debug level shows all messages",
			level: LogDebug,
			setupFunc: func(l *Logger) {
				l.Debug("debug message")
				l.Info("info message")
				l.Warn("warn message")
				l.Error("error message")
			},
			expectedOutput: []string{
				"level=DEBUG", `msg="debug message"`,
				"level=INFO", `msg="info message"`,
				"level=WARN", `msg="warn message"`,
				"level=ERROR", `msg="error message"`,
			},
		},
		{
			name:  "info level hides debug messages",
			level: LogInfo,
			setupFunc: func(l *Logger) {
				l.Debug("debug message")
				l.Info("info message")
			},
			expectedOutput: []string{"level=INFO", "info message"},
			notExpected:    []string{"level=DEBUG", "debug message"},
		},
		{
			name:  "warn level shows only warnings and errors",
			level: LogWarn,
			setupFunc: func(l *Logger) {
				l.Info("info message")
				l.Warn("warn message")
				l.Error("error message")
			},
			expectedOutput: []string{"warn message", "error message"},
			notExpected:    []string{"info message"},
		},
		{
			name:  "off level shows nothing",
			level: LogOff,
			setupFunc: func(l *Logger) {
				l.Error("error message")
			},
			notExpected: []string{"error message"},
		},
		{
			name:  "printf formatting",
			level: LogInfo,
			setupFunc: func(l *Logger) {
				l.Info("generated %d slides in %s", 3, "12ms")
			},
			expectedOutput: []string{`msg="generated 3 slides in 12ms"`},
		},
		{
			name:  "fields are attached",
			level: LogInfo,
			setupFunc: func(l *Logger) {
				l.WithFields(Fields{"style": "dark", "slides": 4}).WithField("slide", 2).Warn("image dropped")
			},
			expectedOutput: []string{"slides=4", "style=dark", "slide=2", `msg="image dropped"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)
			tt.setupFunc(logger)

			output := buf.String()
			for _, expected := range tt.expectedOutput {
				assert.Contains(t, output, expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, output, notExpected)
			}
		})
	}
}

func TestLogger_SetLevelReachesDerivedLoggers(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(&buf, LogInfo)
	child := root.WithField("request", "abc")

	child.Debug("hidden")
	root.SetLevel(LogDebug)
	child.Debug("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.True(t, child.IsDebugMode())
	assert.Equal(t, LogDebug, child.Level())

	root.SetLevel(LogOff)
	child.Error("silenced")
	assert.NotContains(t, buf.String(), "silenced")
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&buf, LogInfo)
	_ = parent.WithField("k", "v")
	parent.Info("plain")
	assert.NotContains(t, buf.String(), "k=v")
}

func TestLogger_Concurrent(t *testing.T) {
	var buf syncBuffer
	logger := NewLogger(&buf, LogInfo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.WithField("worker", i).Info("done")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, strings.Count(buf.String(), `msg=done`))
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogDebug,
		"INFO":    LogInfo,
		"warn":    LogWarn,
		"warning": LogWarn,
		"error":   LogError,
		"off":     LogOff,
		"bogus":   LogInfo,
		"":        LogInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), "parseLogLevel(%q)", in)
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LogWarn.String())
	assert.Equal(t, "OFF", LogOff.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestGlobalLogger(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	var buf bytes.Buffer
	SetLogger(NewLogger(&buf, LogWarn))
	Info("quiet")
	Warn("loud %d", 1)
	WithField("k", "v").Error("with field")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud 1")
	assert.Contains(t, buf.String(), "k=v")
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
