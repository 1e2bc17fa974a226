// Package utils provides utility functions for dbglue
package utils // nolint:revive // utils is an acceptable name for internal utility package

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/term"
)

// ANSI color codes
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"
)

// colorMode: 0 = detect, 1 = forced on, 2 = forced off.
var colorMode atomic.Int32

// SetColorEnabled forces colors on or off, overriding terminal detection.
func SetColorEnabled(enabled bool) {
	if enabled {
		colorMode.Store(1)
		return
	}
	colorMode.Store(2)
}

// ResetColorDetection restores terminal-based color detection.
func ResetColorDetection() {
	colorMode.Store(0)
}

// Colorize adds color to text if output supports it
func Colorize(color, text string) string {
	if IsColorSupported() {
		return color + text + ColorReset
	}
	return text
}

// IsColorSupported reports whether stderr is a terminal that should receive
// ANSI colors, honoring NO_COLOR and SetColorEnabled.
func IsColorSupported() bool {
	switch colorMode.Load() {
	case 1:
		return true
	case 2:
		return false
	}
	if runtime.GOOS == "windows" || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// FormatLogLevel formats log levels with colors
func FormatLogLevel(level string) string {
	switch level {
	case "DEBUG":
		return Colorize(ColorDim, "DEBUG")
	case "INFO":
		return Colorize(ColorBlue, "INFO")
	case "WARN":
		return Colorize(ColorYellow, "WARN")
	case "ERROR":
		return Colorize(ColorRed, "ERROR")
	case "SUCCESS":
		return Colorize(ColorGreen, "DONE")
	default:
		return Colorize(ColorCyan, level)
	}
}

// HighlightTableName highlights table names in log messages
func HighlightTableName(table string) string {
	return Colorize(ColorBlue+ColorBold, table)
}

// HighlightNumber highlights counts in log messages
func HighlightNumber(number any) string {
	return Colorize(ColorYellow+ColorBold, fmt.Sprintf("%v", number))
}

// HighlightStatus colors a terminal table status: green when completed,
// red when aborted, dim for skips.
func HighlightStatus(status string) string {
	switch status {
	case "completed":
		return Colorize(ColorGreen, status)
	case "aborted":
		return Colorize(ColorRed, status)
	default:
		return Colorize(ColorDim, status)
	}
}
