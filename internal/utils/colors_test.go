package utils

import (
	"strings"
	"testing"
)

func TestColorize_Forced(t *testing.T) {
	defer ResetColorDetection()

	SetColorEnabled(true)
	if got := Colorize(ColorRed, "boom"); got != ColorRed+"boom"+ColorReset {
		t.Errorf("Colorize with colors forced on = %q", got)
	}

	SetColorEnabled(false)
	if got := Colorize(ColorRed, "boom"); got != "boom" {
		t.Errorf("Colorize with colors forced off = %q, want plain text", got)
	}
}

func TestIsColorSupported_NoColorEnv(t *testing.T) {
	ResetColorDetection()
	t.Setenv("NO_COLOR", "1")

	if IsColorSupported() {
		t.Error("NO_COLOR should disable colors")
	}
}

func TestFormatLogLevel(t *testing.T) {
	defer ResetColorDetection()
	SetColorEnabled(false)

	tests := []struct {
		level    string
		expected string
	}{
		{"DEBUG", "DEBUG"},
		{"INFO", "INFO"},
		{"WARN", "WARN"},
		{"ERROR", "ERROR"},
		{"SUCCESS", "DONE"},
		{"TRACE", "TRACE"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := FormatLogLevel(tt.level); got != tt.expected {
				t.Errorf("FormatLogLevel(%s) = %q, want %q", tt.level, got, tt.expected)
			}
		})
	}
}

func TestHighlightHelpers(t *testing.T) {
	defer ResetColorDetection()
	SetColorEnabled(true)

	if got := HighlightTableName("orders"); !strings.Contains(got, "orders") || !strings.HasPrefix(got, ColorBlue) {
		t.Errorf("HighlightTableName = %q", got)
	}
	if got := HighlightNumber(int64(2500)); !strings.Contains(got, "2500") {
		t.Errorf("HighlightNumber = %q", got)
	}
	if got := HighlightStatus("completed"); !strings.HasPrefix(got, ColorGreen) {
		t.Errorf("HighlightStatus(completed) = %q", got)
	}
	if got := HighlightStatus("aborted"); !strings.HasPrefix(got, ColorRed) {
		t.Errorf("HighlightStatus(aborted) = %q", got)
	}
	if got := HighlightStatus("skipped-empty"); !strings.HasPrefix(got, ColorDim) {
		t.Errorf("HighlightStatus(skipped-empty) = %q", got)
	}
}
