package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))

			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.DebugLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Laid out midgaard")

	out := buf.String()
	if !strings.Contains(out, "Laid out midgaard") {
		t.Errorf("progress output should contain the message: %q", out)
	}
	if !strings.Contains(out, "duration=") {
		t.Errorf("progress output should carry the duration: %q", out)
	}
}

func TestProgressQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Laid out midgaard")
	if buf.Len() != 0 {
		t.Errorf("progress should log at debug level, got %q", buf.String())
	}
}
