package scheduling

import "github.com/eclinicgh/telehealth-platform/internal/directory"

// ResolveOpenSlots returns the time labels still offerable for a provider on a
// date: the availability map's declared sequence for that date minus any label
// already claimed by a non-terminal appointment.
//
// Pure function of its inputs. Ordering follows the availability map's
// declared order for the date; booked labels are removed without re-sorting.
// A date absent from the map, or present with no labels, yields an empty
// result. Filtering out dates in the past is the caller's job.
func ResolveOpenSlots(avail directory.Availability, date string, booked []string) []string {
	declared := avail.TimesOn(date)
	if len(declared) == 0 {
		return nil
	}

	claimed := make(map[string]struct{}, len(booked))
	for _, label := range booked {
		claimed[label] = struct{}{}
	}

	open := make([]string, 0, len(declared))
	for _, label := range declared {
		if _, taken := claimed[label]; taken {
			continue
		}
		open = append(open, label)
	}
	return open
}
