package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", false, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", false, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", true, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, levelFor(tt.verbose)))
			if gotLog := buf.Len() > 0; gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestTimed(t *testing.T) {
	var buf bytes.Buffer
	timed(newLogger(&buf, log.InfoLevel))("simulated", "ticks", 5)

	out := buf.String()
	for _, want := range []string{"simulated", "ticks=5", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q should contain %q", out, want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Fatal("loggerFromContext should fall back to the default logger")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	got := loggerFromContext(withLogger(context.Background(), custom))
	if got != custom {
		t.Fatal("loggerFromContext should return the attached logger")
	}
	got.Info("test")
	if buf.Len() == 0 {
		t.Error("custom logger should write to buffer")
	}
}
