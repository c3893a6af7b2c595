package session

import "fmt"

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(totalSeconds int) string {
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}

// FormatTotal renders the booked time as "/ h:mm HR" or "/ m:00 MIN".
func FormatTotal(totalMinutes int) string {
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("/ %d:%02d HR", hours, minutes)
	}
	return fmt.Sprintf("/ %d:00 MIN", minutes)
}
