package availability

import "time"

// civilDate is the layout of the date-only fields the calendar API returns
// for all-day events.
const civilDate = "2006-01-02"

// EventTime carries either an RFC 3339 instant (timed events) or a bare
// civil date (all-day events). Exactly one of the two is populated.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// CalendarEvent is the wire shape of a calendar event as returned by the
// calendar fetch layer.
type CalendarEvent struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary,omitempty"`
	Start   EventTime `json:"start"`
	End     EventTime `json:"end"`
}

// EventSetting is the user's per-event choice: whether the event blocks
// interview time, and how many minutes of padding to add around it.
type EventSetting struct {
	ID           string `json:"id"`
	Selected     bool   `json:"selected"`
	BufferBefore int    `json:"bufferBefore"`
	BufferAfter  int    `json:"bufferAfter"`
}

// Exclusion is a resolved time range during which no slot may be proposed.
// Start < End always holds for exclusions produced by Normalize.
type Exclusion struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

type eventKind int

const (
	kindMalformed eventKind = iota
	kindAllDay
	kindTimed
)

// classify is the single place that inspects which optional fields are
// populated; everything downstream works with the explicit kinds.
func classify(ev CalendarEvent) eventKind {
	switch {
	case ev.Start.Date != "" && ev.End.Date != "":
		return kindAllDay
	case ev.Start.DateTime != "" && ev.End.DateTime != "":
		return kindTimed
	default:
		return kindMalformed
	}
}

// Normalize resolves raw calendar events and their settings into exclusions.
// Events without a setting, with Selected=false, or with a shape that cannot
// be parsed are skipped; a single bad event never aborts the computation.
func Normalize(events []CalendarEvent, settings []EventSetting, loc *time.Location) []Exclusion {
	byID := make(map[string]EventSetting, len(settings))
	for _, s := range settings {
		byID[s.ID] = s
	}

	exclusions := make([]Exclusion, 0, len(events))
	for _, ev := range events {
		setting, ok := byID[ev.ID]
		if !ok || !setting.Selected {
			continue
		}
		switch classify(ev) {
		case kindAllDay:
			if excl, err := allDayExclusion(ev, loc); err == nil {
				exclusions = append(exclusions, excl)
			}
		case kindTimed:
			if excl, err := timedExclusion(ev, setting); err == nil {
				exclusions = append(exclusions, excl)
			}
		}
	}
	return exclusions
}

// allDayExclusion spans the event's civil days in loc, from 00:00:00 of the
// first day through 23:59:59 of the last. The calendar API reports the end
// date of an all-day event as exclusive, so the last blocked day is the day
// before End.Date.
func allDayExclusion(ev CalendarEvent, loc *time.Location) (Exclusion, error) {
	start, err := time.ParseInLocation(civilDate, ev.Start.Date, loc)
	if err != nil {
		return Exclusion{}, err
	}
	end, err := time.ParseInLocation(civilDate, ev.End.Date, loc)
	if err != nil {
		return Exclusion{}, err
	}
	last := end.AddDate(0, 0, -1)
	if last.Before(start) {
		last = start
	}
	return Exclusion{
		ID:      ev.ID,
		Summary: ev.Summary,
		Start:   start,
		End:     time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 0, loc),
		AllDay:  true,
	}, nil
}

// timedExclusion widens the event by its buffers. Events that collapse to a
// zero or negative span are dropped.
func timedExclusion(ev CalendarEvent, setting EventSetting) (Exclusion, error) {
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return Exclusion{}, err
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return Exclusion{}, err
	}
	start = start.Add(-time.Duration(setting.BufferBefore) * time.Minute)
	end = end.Add(time.Duration(setting.BufferAfter) * time.Minute)
	if !end.After(start) {
		return Exclusion{}, errEmptyInterval
	}
	return Exclusion{
		ID:      ev.ID,
		Summary: ev.Summary,
		Start:   start,
		End:     end,
	}, nil
}
