package availability

import (
	"fmt"
	"time"
)

// Single-character weekday names, indexed by time.Weekday.
var weekdayKanji = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// FormattedSlot is the display rendering of a slot in the service timezone.
type FormattedSlot struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Formatted string `json:"formatted"`
}

// Format renders slots for display in loc, e.g. "2026/09/07(月) 09:00～12:00".
func Format(slots []Slot, loc *time.Location) []FormattedSlot {
	out := make([]FormattedSlot, 0, len(slots))
	for _, s := range slots {
		start := s.Start.In(loc)
		end := s.End.In(loc)
		date := start.Format("2006/01/02")
		dow := weekdayKanji[int(start.Weekday())]
		startTime := start.Format("15:04")
		endTime := end.Format("15:04")
		out = append(out, FormattedSlot{
			Date:      date,
			DayOfWeek: dow,
			StartTime: startTime,
			EndTime:   endTime,
			Formatted: fmt.Sprintf("%s(%s) %s～%s", date, dow, startTime, endTime),
		})
	}
	return out
}
