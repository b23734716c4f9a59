package walk

import "fmt"

// FormatElapsed renders elapsed milliseconds as MM:SS, or H:MM:SS past one
// hour, for the walk timer display. Negative input renders as 00:00.
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSecs := ms / 1000
	hours := totalSecs / 3600
	mins := (totalSecs % 3600) / 60
	secs := totalSecs % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}
	return fmt.Sprintf("%02d:%02d", mins, secs)
}
