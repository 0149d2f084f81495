package analytics

import (
	"testing"
	"time"
)

func TestWeekOfAnchorsOnMonday(t *testing.T) {
	for day := 0; day < 7; day++ {
		d := week1.AddDate(0, 0, day).Add(15 * time.Hour)
		w := WeekOf(d)
		if !w.Start.Equal(week1) {
			t.Errorf("WeekOf(%s) = %s, want %s", d.Format(DateLayout), w, week1.Format(DateLayout))
		}
		if !w.Contains(d) {
			t.Errorf("week %s should contain %s", w, d.Format(DateLayout))
		}
	}

	sunday := week1.AddDate(0, 0, -1)
	if w := WeekOf(sunday); w.Start.Equal(week1) {
		t.Errorf("Sunday before %s belongs to the previous week, got %s", week1.Format(DateLayout), w)
	}
}

func TestWeekEndAndString(t *testing.T) {
	w := WeekOf(week1)
	if got := w.End().Format(DateLayout); got != "2025-01-12" {
		t.Errorf("End = %s, want 2025-01-12", got)
	}
	if w.String() != "2025-01-06" {
		t.Errorf("String = %s, want 2025-01-06", w)
	}
}

func TestWeekAdjacency(t *testing.T) {
	w1 := WeekOf(weekDay(1, 0))
	w2 := WeekOf(weekDay(2, 3))
	w4 := WeekOf(weekDay(4, 0))

	if !w1.AdjacentTo(w2) {
		t.Error("consecutive weeks should be adjacent")
	}
	if w2.AdjacentTo(w1) {
		t.Error("adjacency is directional: w2 does not precede w1")
	}
	if w2.AdjacentTo(w4) {
		t.Error("weeks 14 days apart are not adjacent")
	}
	if !w1.Before(w2) || w2.Before(w1) {
		t.Error("Before should order weeks chronologically")
	}
}

func TestWeekAcrossYearBoundary(t *testing.T) {
	w := WeekOf(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if got := w.String(); got != "2024-12-30" {
		t.Errorf("WeekOf(2025-01-01) = %s, want 2024-12-30", got)
	}
	if !w.AdjacentTo(WeekOf(week1)) {
		t.Error("2024-12-30 and 2025-01-06 should be adjacent")
	}
}
