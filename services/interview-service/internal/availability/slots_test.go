package availability

import (
	"testing"
	"time"
)

var jst = time.FixedZone("JST", 9*60*60)

func allWeekdays() map[time.Weekday]bool {
	days := map[time.Weekday]bool{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		days[d] = true
	}
	return days
}

func weekdays(days ...time.Weekday) map[time.Weekday]bool {
	set := map[time.Weekday]bool{}
	for _, d := range days {
		set[d] = true
	}
	return set
}

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, jst)

func baseConstraints() Constraints {
	return Constraints{
		From:        monday,
		To:          monday,
		Weekdays:    weekdays(time.Monday),
		DayStart:    9 * 60,
		DayEnd:      17 * 60,
		MinDuration: 30 * time.Minute,
	}
}

func timed(id string, start, end time.Time) Exclusion {
	return Exclusion{ID: id, Start: start, End: end}
}

func TestFindEmptyDayYieldsFullWindow(t *testing.T) {
	slots := Find(nil, baseConstraints(), jst)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	wantStart := time.Date(2026, 9, 7, 9, 0, 0, 0, jst)
	wantEnd := time.Date(2026, 9, 7, 17, 0, 0, 0, jst)
	if !slots[0].Start.Equal(wantStart) || !slots[0].End.Equal(wantEnd) {
		t.Fatalf("expected %s-%s, got %s-%s", wantStart, wantEnd, slots[0].Start, slots[0].End)
	}
}

func TestFindSplitsAroundExclusion(t *testing.T) {
	excl := []Exclusion{timed("e1",
		time.Date(2026, 9, 7, 10, 0, 0, 0, jst),
		time.Date(2026, 9, 7, 11, 0, 0, 0, jst),
	)}
	slots := Find(excl, baseConstraints(), jst)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if !slots[0].End.Equal(time.Date(2026, 9, 7, 10, 0, 0, 0, jst)) {
		t.Fatalf("first slot should end 10:00, got %s", slots[0].End)
	}
	if !slots[1].Start.Equal(time.Date(2026, 9, 7, 11, 0, 0, 0, jst)) {
		t.Fatalf("second slot should start 11:00, got %s", slots[1].Start)
	}
}

func TestFindDropsShortGaps(t *testing.T) {
	excl := []Exclusion{
		timed("e1",
			time.Date(2026, 9, 7, 10, 0, 0, 0, jst),
			time.Date(2026, 9, 7, 10, 20, 0, 0, jst)),
		timed("e2",
			time.Date(2026, 9, 7, 11, 0, 0, 0, jst),
			time.Date(2026, 9, 7, 16, 50, 0, 0, jst)),
	}
	slots := Find(excl, baseConstraints(), jst)
	// 09:00-10:00 (60m) and 10:20-11:00 (40m) survive; the trailing
	// 16:50-17:00 remainder (10m) falls under the floor.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %v", len(slots), slots)
	}
	if !slots[0].Start.Equal(time.Date(2026, 9, 7, 9, 0, 0, 0, jst)) ||
		!slots[0].End.Equal(time.Date(2026, 9, 7, 10, 0, 0, 0, jst)) {
		t.Fatalf("unexpected first slot %s-%s", slots[0].Start, slots[0].End)
	}
	if !slots[1].Start.Equal(time.Date(2026, 9, 7, 10, 20, 0, 0, jst)) ||
		!slots[1].End.Equal(time.Date(2026, 9, 7, 11, 0, 0, 0, jst)) {
		t.Fatalf("unexpected second slot %s-%s", slots[1].Start, slots[1].End)
	}
}

func TestFindOverlappingAndNestedExclusions(t *testing.T) {
	excl := []Exclusion{
		timed("outer",
			time.Date(2026, 9, 7, 10, 0, 0, 0, jst),
			time.Date(2026, 9, 7, 13, 0, 0, 0, jst)),
		timed("nested",
			time.Date(2026, 9, 7, 11, 0, 0, 0, jst),
			time.Date(2026, 9, 7, 12, 0, 0, 0, jst)),
		timed("overlapping",
			time.Date(2026, 9, 7, 12, 30, 0, 0, jst),
			time.Date(2026, 9, 7, 14, 0, 0, 0, jst)),
	}
	slots := Find(excl, baseConstraints(), jst)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %v", len(slots), slots)
	}
	if !slots[1].Start.Equal(time.Date(2026, 9, 7, 14, 0, 0, 0, jst)) {
		t.Fatalf("second slot should start 14:00, got %s", slots[1].Start)
	}
}

func TestFindAbuttingExclusionsLeaveNoGap(t *testing.T) {
	excl := []Exclusion{
		timed("a",
			time.Date(2026, 9, 7, 9, 0, 0, 0, jst),
			time.Date(2026, 9, 7, 12, 0, 0, 0, jst)),
		timed("b",
			time.Date(2026, 9, 7, 12, 0, 0, 0, jst),
			time.Date(2026, 9, 7, 17, 0, 0, 0, jst)),
	}
	slots := Find(excl, baseConstraints(), jst)
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestFindWeekdayFilter(t *testing.T) {
	c := baseConstraints()
	// Monday through Friday, but only Tuesday and Thursday allowed.
	c.To = time.Date(2026, 9, 11, 0, 0, 0, 0, jst)
	c.Weekdays = weekdays(time.Tuesday, time.Thursday)
	slots := Find(nil, c, jst)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	for _, s := range slots {
		wd := s.Start.In(jst).Weekday()
		if wd != time.Tuesday && wd != time.Thursday {
			t.Fatalf("slot on disallowed weekday %s", wd)
		}
	}
}

func TestFindAllDayExclusionBlocksWholeDay(t *testing.T) {
	c := baseConstraints()
	// Tuesday through Thursday; Wednesday carries an all-day exclusion.
	c.From = time.Date(2026, 9, 8, 0, 0, 0, 0, jst)
	c.To = time.Date(2026, 9, 10, 0, 0, 0, 0, jst)
	c.Weekdays = allWeekdays()
	excl := []Exclusion{{
		ID:     "holiday",
		Start:  time.Date(2026, 9, 9, 0, 0, 0, 0, jst),
		End:    time.Date(2026, 9, 9, 23, 59, 59, 0, jst),
		AllDay: true,
	}}
	slots := Find(excl, c, jst)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Start.In(jst).Day() == 9 {
			t.Fatalf("slot scheduled on blocked day: %s", s.Start)
		}
	}
}

func TestFindMultiDayAllDayExclusion(t *testing.T) {
	c := baseConstraints()
	c.From = time.Date(2026, 9, 7, 0, 0, 0, 0, jst)
	c.To = time.Date(2026, 9, 11, 0, 0, 0, 0, jst)
	c.Weekdays = allWeekdays()
	excl := []Exclusion{{
		ID:     "trip",
		Start:  time.Date(2026, 9, 8, 0, 0, 0, 0, jst),
		End:    time.Date(2026, 9, 10, 23, 59, 59, 0, jst),
		AllDay: true,
	}}
	slots := Find(excl, c, jst)
	if len(slots) != 2 {
		t.Fatalf("expected slots only on Mon and Fri, got %d", len(slots))
	}
	if slots[0].Start.In(jst).Day() != 7 || slots[1].Start.In(jst).Day() != 11 {
		t.Fatalf("unexpected slot days: %s, %s", slots[0].Start, slots[1].Start)
	}
}

func TestFindDefaultsToSingleDayRange(t *testing.T) {
	c := baseConstraints()
	c.To = time.Time{}
	slots := Find(nil, c, jst)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
}

func TestFindOrderedAndNonOverlapping(t *testing.T) {
	c := baseConstraints()
	c.To = time.Date(2026, 9, 18, 0, 0, 0, 0, jst)
	c.Weekdays = allWeekdays()
	excl := []Exclusion{
		timed("a",
			time.Date(2026, 9, 8, 10, 0, 0, 0, jst),
			time.Date(2026, 9, 8, 12, 0, 0, 0, jst)),
		timed("b",
			time.Date(2026, 9, 10, 13, 0, 0, 0, jst),
			time.Date(2026, 9, 10, 14, 0, 0, 0, jst)),
		timed("c",
			time.Date(2026, 9, 10, 13, 30, 0, 0, jst),
			time.Date(2026, 9, 10, 15, 0, 0, 0, jst)),
	}
	slots := Find(excl, c, jst)
	for i := 1; i < len(slots); i++ {
		if slots[i-1].End.After(slots[i].Start) {
			t.Fatalf("slots %d and %d overlap or are out of order: %v %v", i-1, i, slots[i-1], slots[i])
		}
	}
	for _, s := range slots {
		if s.End.Sub(s.Start) < c.MinDuration {
			t.Fatalf("slot below duration floor: %v", s)
		}
	}
}

func TestFindIdempotent(t *testing.T) {
	c := baseConstraints()
	c.To = time.Date(2026, 9, 11, 0, 0, 0, 0, jst)
	c.Weekdays = allWeekdays()
	excl := []Exclusion{timed("e1",
		time.Date(2026, 9, 8, 10, 0, 0, 0, jst),
		time.Date(2026, 9, 8, 11, 0, 0, 0, jst))}

	first := Find(excl, c, jst)
	second := Find(excl, c, jst)
	if len(first) != len(second) {
		t.Fatalf("runs differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Start.Equal(second[i].Start) || !first[i].End.Equal(second[i].End) {
			t.Fatalf("runs differ at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestClipToNowDropsPastAndTrimsStraddling(t *testing.T) {
	now := time.Date(2026, 9, 7, 14, 0, 0, 0, jst)
	slots := []Slot{
		{Start: time.Date(2026, 9, 7, 9, 0, 0, 0, jst), End: time.Date(2026, 9, 7, 10, 0, 0, 0, jst)},
		{Start: time.Date(2026, 9, 7, 11, 0, 0, 0, jst), End: time.Date(2026, 9, 7, 17, 0, 0, 0, jst)},
		{Start: time.Date(2026, 9, 8, 9, 0, 0, 0, jst), End: time.Date(2026, 9, 8, 17, 0, 0, 0, jst)},
	}
	clipped := ClipToNow(slots, now)
	if len(clipped) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(clipped))
	}
	if !clipped[0].Start.Equal(now) {
		t.Fatalf("straddling slot should start at now, got %s", clipped[0].Start)
	}
	if !clipped[1].Start.Equal(slots[2].Start) {
		t.Fatalf("future slot should be untouched, got %s", clipped[1].Start)
	}
}

func TestClipToNowFullWindowDay(t *testing.T) {
	// A day in progress: window 09:00-17:00, now 14:00, no exclusions.
	now := time.Date(2026, 9, 7, 14, 0, 0, 0, jst)
	slots := ClipToNow(Find(nil, baseConstraints(), jst), now)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if !slots[0].Start.Equal(now) || !slots[0].End.Equal(time.Date(2026, 9, 7, 17, 0, 0, 0, jst)) {
		t.Fatalf("expected 14:00-17:00, got %s-%s", slots[0].Start, slots[0].End)
	}
}
