package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/knakajima/slotpicker/services/interview-service/internal/availability"
)

// SlotsHandler runs the slot computation for a submitted form. The handler
// validates the request up front; the availability package itself only sees
// well-formed constraints.
type SlotsHandler struct {
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewSlotsHandler(logger *slog.Logger, loc *time.Location) *SlotsHandler {
	return &SlotsHandler{logger: logger, loc: loc, now: time.Now}
}

type slotsRequest struct {
	DateRange       string                       `json:"date_range"`
	Days            []string                     `json:"days"`
	StartTime       string                       `json:"start_time"`
	EndTime         string                       `json:"end_time"`
	MinimumDuration int                          `json:"minimum_duration"`
	Events          []availability.EventSetting  `json:"events"`
	CalendarData    []availability.CalendarEvent `json:"calendarData"`
}

type slotsResponse struct {
	Success bool                         `json:"success"`
	Slots   []availability.FormattedSlot `json:"slots"`
}

type slotsFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type dateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func (h *SlotsHandler) Compute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req slotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, slotsFailure{
			Message: "invalid request body",
			Error:   err.Error(),
		})
		return
	}

	constraints, reasons := parseConstraints(req, h.loc)
	if len(reasons) > 0 {
		writeJSON(w, http.StatusBadRequest, slotsFailure{
			Message: "validation failed",
			Error:   strings.Join(reasons, "; "),
		})
		return
	}

	exclusions := availability.Normalize(req.CalendarData, req.Events, h.loc)
	slots := availability.Find(exclusions, constraints, h.loc)
	slots = availability.ClipToNow(slots, h.now())

	writeJSON(w, http.StatusOK, slotsResponse{
		Success: true,
		Slots:   availability.Format(slots, h.loc),
	})
}

// parseConstraints checks the whole request and collects every reason it is
// invalid rather than stopping at the first.
func parseConstraints(req slotsRequest, loc *time.Location) (availability.Constraints, []string) {
	var c availability.Constraints
	var reasons []string

	if strings.TrimSpace(req.DateRange) == "" {
		reasons = append(reasons, "date_range is required")
	} else {
		var dr dateRange
		if err := json.Unmarshal([]byte(req.DateRange), &dr); err != nil || dr.From == "" {
			reasons = append(reasons, "date_range must be a JSON object with a from date")
		} else {
			from, err := parseDate(dr.From, loc)
			if err != nil {
				reasons = append(reasons, fmt.Sprintf("date_range.from is not a valid date: %q", dr.From))
			} else {
				c.From = from
			}
			if dr.To != "" {
				to, err := parseDate(dr.To, loc)
				if err != nil {
					reasons = append(reasons, fmt.Sprintf("date_range.to is not a valid date: %q", dr.To))
				} else {
					c.To = to
				}
			}
		}
	}

	if len(req.Days) == 0 {
		reasons = append(reasons, "at least one weekday is required")
	} else {
		set := make(map[time.Weekday]bool, len(req.Days))
		for _, name := range req.Days {
			wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				reasons = append(reasons, fmt.Sprintf("unknown weekday %q", name))
				continue
			}
			set[wd] = true
		}
		c.Weekdays = set
	}

	if minutes, err := parseWallClock(req.StartTime); err != nil {
		reasons = append(reasons, fmt.Sprintf("start_time must be HH:mm, got %q", req.StartTime))
	} else {
		c.DayStart = minutes
	}
	if minutes, err := parseWallClock(req.EndTime); err != nil {
		reasons = append(reasons, fmt.Sprintf("end_time must be HH:mm, got %q", req.EndTime))
	} else {
		c.DayEnd = minutes
	}

	switch {
	case req.MinimumDuration == 0:
		c.MinDuration = availability.MinimumDurationFloor
	case req.MinimumDuration < 30:
		reasons = append(reasons, "minimum_duration must be at least 30 minutes")
	default:
		c.MinDuration = time.Duration(req.MinimumDuration) * time.Minute
	}

	return c, reasons
}

// parseDate accepts either a full RFC 3339 instant (what the date picker
// submits) or a bare civil date.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

func parseWallClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
