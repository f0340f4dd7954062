package gcal

import (
	"errors"
	"testing"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

func TestConvertEvent(t *testing.T) {
	ev := convertEvent(&calendar.Event{
		Id:      "ev1",
		Summary: "面談",
		Start:   &calendar.EventDateTime{DateTime: "2026-09-07T10:00:00+09:00"},
		End:     &calendar.EventDateTime{DateTime: "2026-09-07T11:00:00+09:00"},
	})
	if ev.ID != "ev1" || ev.Summary != "面談" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Start.DateTime == "" || ev.Start.Date != "" {
		t.Fatalf("expected timed start, got %+v", ev.Start)
	}
}

func TestConvertEventAllDayAndNilTimes(t *testing.T) {
	ev := convertEvent(&calendar.Event{
		Id:    "ev2",
		Start: &calendar.EventDateTime{Date: "2026-09-09"},
		End:   &calendar.EventDateTime{Date: "2026-09-10"},
	})
	if ev.Start.Date != "2026-09-09" || ev.End.Date != "2026-09-10" {
		t.Fatalf("unexpected all-day conversion %+v", ev)
	}

	bare := convertEvent(&calendar.Event{Id: "ev3"})
	if bare.Start.Date != "" || bare.Start.DateTime != "" {
		t.Fatalf("expected empty times for nil start, got %+v", bare)
	}
}

func TestMapGoogleError(t *testing.T) {
	if err := mapGoogleError(&googleapi.Error{Code: 401}); !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("401 should map to ErrReauthRequired, got %v", err)
	}
	if err := mapGoogleError(&googleapi.Error{Code: 500}); errors.Is(err, ErrReauthRequired) {
		t.Fatal("500 should not map to ErrReauthRequired")
	}
	plain := errors.New("boom")
	if err := mapGoogleError(plain); !errors.Is(err, plain) {
		t.Fatalf("unexpected mapping for plain error: %v", err)
	}
}
