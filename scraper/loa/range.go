package loa

import (
	"fmt"

	"loa-scraper/models"
)

// Range selects volumes by number. Without an end it is open-ended.
type Range struct {
	Start   uint32
	End     uint32
	Bounded bool
}

// NewRange builds a Range; a nil end leaves it unbounded.
func NewRange(start uint32, end *uint32) Range {
	if end == nil {
		return Range{Start: start}
	}
	return Range{Start: start, End: *end, Bounded: true}
}

// Validate reports a range whose end lies before its start. Such a range is
// not an error for Filter, it simply selects nothing.
func (r Range) Validate() error {
	if r.Bounded && r.End < r.Start {
		return fmt.Errorf("end volume %d is before start volume %d", r.End, r.Start)
	}
	return nil
}

func (r Range) Contains(n uint32) bool {
	return n >= r.Start && (!r.Bounded || n <= r.End)
}

func (r Range) String() string {
	if r.Bounded {
		return fmt.Sprintf("%d-%d", r.Start, r.End)
	}
	return fmt.Sprintf("%d+", r.Start)
}

// Filter keeps the volumes inside r, preserving order.
func Filter(volumes []*models.VolumeRecord, r Range) []*models.VolumeRecord {
	out := make([]*models.VolumeRecord, 0, len(volumes))
	for _, v := range volumes {
		if r.Contains(v.Number) {
			out = append(out, v)
		}
	}
	return out
}
