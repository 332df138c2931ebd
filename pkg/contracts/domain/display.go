package domain

import "fmt"

// FormatDuration renders a duration in seconds as a human readable string.
// Follows the hotspot operator convention: hours below a day, days below a
// week, then weeks.
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	switch {
	case hours < 1:
		minutes := seconds / 60
		if minutes <= 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	case hours == 1:
		return "1 hour"
	case hours < 24:
		return fmt.Sprintf("%d hours", hours)
	case hours < 168:
		days := hours / 24
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	default:
		weeks := hours / 168
		if weeks == 1 {
			return "1 week"
		}
		return fmt.Sprintf("%d weeks", weeks)
	}
}

// FormatRateLimit returns the device-native rate-limit token, download first:
// "<down>M/<up>M".
func FormatRateLimit(downloadMbps, uploadMbps int) string {
	return fmt.Sprintf("%dM/%dM", downloadMbps, uploadMbps)
}

// FormatDataMB renders a data quota in megabytes, promoting to GB at 1024MB
func FormatDataMB(mb int64) string {
	if mb >= 1024 && mb%1024 == 0 {
		return fmt.Sprintf("%dGB", mb/1024)
	}
	return fmt.Sprintf("%dMB", mb)
}
