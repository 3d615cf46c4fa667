package slotfeed

import (
	"fmt"
	"time"
)

// Slot identifies one unit of remote content: a name unique within a
// listing, and the logical date the content belongs to. Several slots may
// carry the same date (for example one file per region per day); the name
// disambiguates them.
//
// Slots are transient. Connectors produce them fresh on every listing and
// only their identity ever reaches the cursor.
type Slot struct {
	Name string
	Time time.Time
}

// String returns "name@date" for logs and error messages.
func (s Slot) String() string {
	return fmt.Sprintf("%s@%s", s.Name, s.Time.Format(time.RFC3339))
}

// maxSlotTime returns the latest timestamp among the given slots, or the
// zero time for an empty slice.
func maxSlotTime(slots []Slot) time.Time {
	var max time.Time
	for _, s := range slots {
		if s.Time.After(max) {
			max = s.Time
		}
	}
	return max
}

// namesAt collects the names of the slots whose timestamp equals t.
func namesAt(slots []Slot, t time.Time) []string {
	var names []string
	for _, s := range slots {
		if s.Time.Equal(t) {
			names = append(names, s.Name)
		}
	}
	return names
}
