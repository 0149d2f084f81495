package analytics

import "time"

// Snapshot is a frozen copy of the waste log handed to one analysis run.
// Functions in this package never modify the records they receive.
type Snapshot struct {
	Records []Record
	TakenAt time.Time
}

// NewSnapshot copies records so later writes to the source cannot reach the run.
func NewSnapshot(records []Record, takenAt time.Time) Snapshot {
	cp := make([]Record, len(records))
	copy(cp, records)
	return Snapshot{Records: cp, TakenAt: takenAt}
}

// Len is the number of records in the snapshot.
func (s Snapshot) Len() int { return len(s.Records) }

// Undated counts records left out of week-keyed views.
func (s Snapshot) Undated() int {
	n := 0
	for _, r := range s.Records {
		if !r.Dated() {
			n++
		}
	}
	return n
}
