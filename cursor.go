package slotfeed

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Cursor marks how far a pipeline has consumed a connector. It carries a
// watermark, the latest slot timestamp ever committed, plus the names of
// the slots already consumed at exactly that timestamp. The name set is
// what lets two slots share a date without either blocking the other.
//
// A slot is eligible when its timestamp is after the watermark, or equal to
// it with a name the cursor has not seen. Anything older is permanently
// behind the cursor.
//
// Cursors are immutable values: Advance returns a new cursor and never
// touches the receiver, so a retained copy stays valid. The zero Cursor
// has a zero watermark and admits every slot.
type Cursor struct {
	watermark time.Time
	seen      map[string]struct{}
}

// NewCursor builds a cursor at the given watermark with the given names
// already consumed at that watermark. Duplicate names collapse.
func NewCursor(watermark time.Time, seen ...string) Cursor {
	c := Cursor{watermark: watermark}
	if len(seen) > 0 {
		c.seen = make(map[string]struct{}, len(seen))
		for _, name := range seen {
			c.seen[name] = struct{}{}
		}
	}
	return c
}

// Watermark returns the latest committed slot timestamp.
func (c Cursor) Watermark() time.Time { return c.watermark }

// Seen returns the names consumed at the watermark, sorted. It returns nil
// when the set is empty and never exposes internal state.
func (c Cursor) Seen() []string {
	if len(c.seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.seen))
	for name := range c.seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Eligible reports whether the cursor still admits s.
func (c Cursor) Eligible(s Slot) bool {
	if s.Time.After(c.watermark) {
		return true
	}
	if !s.Time.Equal(c.watermark) {
		return false
	}
	_, consumed := c.seen[s.Name]
	return !consumed
}

// Filter returns the eligible subset of slots, preserving their order.
func (c Cursor) Filter(slots []Slot) []Slot {
	var eligible []Slot
	for _, s := range slots {
		if c.Eligible(s) {
			eligible = append(eligible, s)
		}
	}
	return eligible
}

// Advance returns the cursor that results from committing the given slots.
// The new watermark is the latest timestamp among them and the name set
// holds the slots processed at that timestamp. When the watermark does not
// move the previous names are kept too, so slots consumed by earlier
// cycles at the same timestamp stay behind the cursor.
//
// An empty batch, or one entirely behind the cursor, leaves it unchanged.
func (c Cursor) Advance(processed []Slot) Cursor {
	if len(processed) == 0 {
		return c
	}
	watermark := maxSlotTime(processed)
	if watermark.Before(c.watermark) {
		return c
	}
	names := namesAt(processed, watermark)
	if watermark.Equal(c.watermark) {
		names = append(names, c.Seen()...)
	}
	return NewCursor(watermark, names...)
}

// Equal reports whether two cursors mark the same position.
func (c Cursor) Equal(other Cursor) bool {
	if !c.watermark.Equal(other.watermark) || len(c.seen) != len(other.seen) {
		return false
	}
	for name := range c.seen {
		if _, ok := other.seen[name]; !ok {
			return false
		}
	}
	return true
}

// String renders the cursor as "watermark" or "watermark!name,name" for
// logs.
func (c Cursor) String() string {
	names := c.Seen()
	if len(names) == 0 {
		return c.watermark.Format(time.RFC3339)
	}
	return fmt.Sprintf("%s!%s", c.watermark.Format(time.RFC3339), strings.Join(names, ","))
}

// cursorJSON is the serialized form of a Cursor. Checkpoint stores that
// persist JSON get this shape.
type cursorJSON struct {
	Watermark time.Time `json:"watermark"`
	Seen      []string  `json:"seen,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Cursor) MarshalJSON() ([]byte, error) {
	return json.Marshal(cursorJSON{
		Watermark: c.watermark,
		Seen:      c.Seen(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Cursor) UnmarshalJSON(data []byte) error {
	var v cursorJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = NewCursor(v.Watermark, v.Seen...)
	return nil
}
