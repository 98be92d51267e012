package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	tests := []struct {
		debug       bool
		level       string
		want        log.Level
		wantErr     bool
		description string
	}{
		{false, "", log.WarnLevel, false, "fallback level"},
		{false, "error", log.ErrorLevel, false, "explicit level"},
		{true, "error", log.DebugLevel, false, "debug overrides level"},
		{false, "loud", 0, true, "unknown level"},
	}
	for _, tt := range tests {
		err := Setup(tt.debug, tt.level, log.WarnLevel)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Setup() error = %v, wantErr %v", tt.description, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && log.GetLevel() != tt.want {
			t.Errorf("%s: level = %v, want %v", tt.description, log.GetLevel(), tt.want)
		}
	}
}

func TestNew_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	saved := Output
	Output = &buf
	defer func() { Output = saved }()

	l := NewWithConfig(nil, "test", log.InfoLevel, false, false, log.TextFormatter)
	l.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output = %q, want it to contain %q", buf.String(), "hello")
	}

	var own bytes.Buffer
	NewWithConfig(&own, "", log.InfoLevel, false, false, log.TextFormatter).Info("direct")
	if !strings.Contains(own.String(), "direct") || strings.Contains(buf.String(), "direct") {
		t.Errorf("explicit writer got %q, Output got %q", own.String(), buf.String())
	}
}
