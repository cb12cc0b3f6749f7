package directory

import (
	"fmt"
	"time"
)

// Availability maps a calendar day (ISO date, venue-local) to the ordered time
// labels the provider has declared offerable. The order is the provider's own;
// nothing downstream re-sorts it. Bookings never mutate this map; open slots
// are re-derived on every read.
type Availability map[string][]string

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Validate checks every date key parses, every label is HH:MM, and labels are
// unique within a day.
func (a Availability) Validate() error {
	for date, times := range a {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return fmt.Errorf("directory: invalid availability date %q: %w", date, err)
		}
		seen := make(map[string]struct{}, len(times))
		for _, label := range times {
			if _, err := time.Parse(timeLayout, label); err != nil {
				return fmt.Errorf("directory: invalid time label %q on %s: %w", label, date, err)
			}
			if _, dup := seen[label]; dup {
				return fmt.Errorf("directory: duplicate time label %q on %s", label, date)
			}
			seen[label] = struct{}{}
		}
	}
	return nil
}

// TimesOn returns the declared labels for a date in declared order. A date the
// provider never declared yields nil, which callers must render as "no slots",
// not an error.
func (a Availability) TimesOn(date string) []string {
	if a == nil {
		return nil
	}
	times := a[date]
	if len(times) == 0 {
		return nil
	}
	out := make([]string, len(times))
	copy(out, times)
	return out
}
