package report

import (
	"fmt"

	"AdAttribution/internal/dates"
)

// CheckRowDate fails when a report row's date is malformed or falls outside
// the requested [start, end] range.
func CheckRowDate(date, start, end string) error {
	if _, err := dates.ParseDate(date); err != nil {
		return err
	}
	if end < start {
		start, end = end, start
	}
	if date < start || date > end {
		return fmt.Errorf("row dated %s outside requested range %s..%s", date, start, end)
	}
	return nil
}
