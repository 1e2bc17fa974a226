package utils // nolint:revive // utils is an acceptable name for internal utility package

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FormatDuration formats a duration without decimal parts: 450ms, 12s, 3m5s, 1h2m3s.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

var numberUnits = []struct {
	size   int64
	suffix string
}{
	{1_000_000_000, "B"},
	{1_000_000, "M"},
	{1_000, "K"},
}

// FormatNumber formats large numbers with K/M/B suffixes.
func FormatNumber(n int64) string {
	for _, u := range numberUnits {
		if n < u.size {
			continue
		}
		if n%u.size == 0 {
			return fmt.Sprintf("%d%s", n/u.size, u.suffix)
		}
		return fmt.Sprintf("%.1f%s", float64(n)/float64(u.size), u.suffix)
	}
	return fmt.Sprintf("%d", n)
}

// FormatRate formats a rows-per-second figure; zero when nothing was measured.
func FormatRate(rows int64, d time.Duration) string {
	if rows <= 0 || d <= 0 {
		return "0 rows/s"
	}
	return fmt.Sprintf("%s rows/s", FormatNumber(int64(float64(rows)/d.Seconds())))
}

// MaskPassword hides the password of a URL-style connection string so it can
// be logged. Strings that are not URLs are returned unchanged.
func MaskPassword(conn string) string {
	if !strings.Contains(conn, "://") {
		return conn
	}
	u, err := url.Parse(conn)
	if err != nil || u.User == nil {
		return conn
	}
	return u.Redacted()
}
