package availability

import (
	"errors"
	"sort"
	"time"
)

var errEmptyInterval = errors.New("availability: interval has no span")

// MinimumDurationFloor is the smallest slot length the service proposes.
const MinimumDurationFloor = 30 * time.Minute

// Constraints describes one slot search. From and To are inclusive civil
// days; DayStart and DayEnd are minutes from midnight bounding the daily
// window [DayStart, DayEnd).
type Constraints struct {
	From        time.Time
	To          time.Time
	Weekdays    map[time.Weekday]bool
	DayStart    int
	DayEnd      int
	MinDuration time.Duration
}

// Slot is a proposable interval. End - Start >= MinDuration for every slot
// returned by Find.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Find walks the civil days of the constraint range in loc and collects the
// gaps between exclusions inside each day's window. Days outside the weekday
// set and days covered by an all-day exclusion yield nothing. The result is
// chronological and non-overlapping by construction: days are visited in
// order and gaps within a day are emitted by a single forward sweep.
func Find(exclusions []Exclusion, c Constraints, loc *time.Location) []Slot {
	var allDay, timed []Exclusion
	for _, e := range exclusions {
		if e.AllDay {
			allDay = append(allDay, e)
		} else {
			timed = append(timed, e)
		}
	}

	from := startOfDay(c.From, loc)
	to := startOfDay(c.To, loc)
	if c.To.IsZero() {
		to = from
	}

	var slots []Slot
	for day := from; !day.After(to); day = nextDay(day, loc) {
		if !c.Weekdays[day.Weekday()] {
			continue
		}
		if coveredByAllDay(day, allDay, loc) {
			continue
		}
		y, m, d := day.Date()
		dayStart := time.Date(y, m, d, c.DayStart/60, c.DayStart%60, 0, 0, loc)
		dayEnd := time.Date(y, m, d, c.DayEnd/60, c.DayEnd%60, 0, 0, loc)
		slots = append(slots, dayGaps(dayStart, dayEnd, timed, c.MinDuration)...)
	}
	return slots
}

// dayGaps sweeps the sorted exclusions overlapping [dayStart, dayEnd) and
// emits the gaps between them. The cursor only moves forward, so exclusions
// nested inside an earlier one contribute nothing; abutting exclusions leave
// a zero-width gap that the duration filter drops.
func dayGaps(dayStart, dayEnd time.Time, exclusions []Exclusion, minDur time.Duration) []Slot {
	overlapping := make([]Exclusion, 0, len(exclusions))
	for _, e := range exclusions {
		if e.Start.Before(dayEnd) && e.End.After(dayStart) {
			overlapping = append(overlapping, e)
		}
	}
	sort.Slice(overlapping, func(i, j int) bool {
		return overlapping[i].Start.Before(overlapping[j].Start)
	})

	var slots []Slot
	emit := func(start, end time.Time) {
		if end.Sub(start) >= minDur {
			slots = append(slots, Slot{Start: start, End: end})
		}
	}

	cursor := dayStart
	for _, e := range overlapping {
		if cursor.Before(e.Start) {
			emit(cursor, e.Start)
		}
		if e.End.After(cursor) {
			cursor = e.End
		}
	}
	if cursor.Before(dayEnd) {
		emit(cursor, dayEnd)
	}
	return slots
}

// coveredByAllDay reports whether the civil day falls inside any all-day
// exclusion, compared as civil-date strings in loc.
func coveredByAllDay(day time.Time, allDay []Exclusion, loc *time.Location) bool {
	d := day.In(loc).Format(civilDate)
	for _, e := range allDay {
		if d >= e.Start.In(loc).Format(civilDate) && d <= e.End.In(loc).Format(civilDate) {
			return true
		}
	}
	return false
}

// ClipToNow drops slots that have already ended and moves the start of a
// slot straddling now forward to now. Order is preserved.
func ClipToNow(slots []Slot, now time.Time) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if !s.End.After(now) {
			continue
		}
		if s.Start.Before(now) {
			s.Start = now
		}
		out = append(out, s)
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// nextDay advances by one civil day via date normalization, which stays
// correct across DST transitions.
func nextDay(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}
