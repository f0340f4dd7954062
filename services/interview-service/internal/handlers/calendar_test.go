package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/knakajima/slotpicker/services/interview-service/internal/availability"
	"github.com/knakajima/slotpicker/services/interview-service/internal/gcal"
)

type fakeCalendarSource struct {
	events      []availability.CalendarEvent
	err         error
	lastEmail   string
	lastRefresh bool
}

func (f *fakeCalendarSource) Events(_ context.Context, email string, refresh bool) ([]availability.CalendarEvent, error) {
	f.lastEmail = email
	f.lastRefresh = refresh
	return f.events, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

func listCalendar(t *testing.T, h *CalendarHandler, url string, withPrincipal bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if withPrincipal {
		ctx := context.WithValue(req.Context(), ctxKeyPrincipal, Principal{Email: "taro@example.com"})
		req = req.WithContext(ctx)
	}
	rw := httptest.NewRecorder()
	h.List(rw, req)
	return rw
}

func TestCalendarList(t *testing.T) {
	source := &fakeCalendarSource{
		events: []availability.CalendarEvent{
			{ID: "ev1", Summary: "sync"},
		},
	}
	h := NewCalendarHandler(source, testLogger())

	rw := listCalendar(t, h, "http://example.com/api/v1/calendar", true)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if source.lastEmail != "taro@example.com" {
		t.Fatalf("source called with email %q", source.lastEmail)
	}
	if source.lastRefresh {
		t.Fatal("refresh should default to false")
	}

	var resp calendarResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != "ev1" {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
}

func TestCalendarListRefreshFlag(t *testing.T) {
	source := &fakeCalendarSource{}
	h := NewCalendarHandler(source, testLogger())

	rw := listCalendar(t, h, "http://example.com/api/v1/calendar?refresh=1", true)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if !source.lastRefresh {
		t.Fatal("refresh=1 should bypass the cache")
	}
	if !strings.Contains(rw.Body.String(), `"events":[]`) {
		t.Fatalf("nil events should render as empty array, got %s", rw.Body.String())
	}
}

func TestCalendarListWithoutPrincipal(t *testing.T) {
	h := NewCalendarHandler(&fakeCalendarSource{}, testLogger())
	rw := listCalendar(t, h, "http://example.com/api/v1/calendar", false)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestCalendarListReauthRequired(t *testing.T) {
	source := &fakeCalendarSource{err: gcal.ErrReauthRequired}
	h := NewCalendarHandler(source, testLogger())

	rw := listCalendar(t, h, "http://example.com/api/v1/calendar", true)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
	if !strings.Contains(rw.Body.String(), "reauthorization required") {
		t.Fatalf("body %q missing reauth message", rw.Body.String())
	}
}

func TestCalendarListUpstreamError(t *testing.T) {
	source := &fakeCalendarSource{err: errors.New("boom")}
	h := NewCalendarHandler(source, testLogger())

	rw := listCalendar(t, h, "http://example.com/api/v1/calendar", true)
	if rw.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rw.Code)
	}
}
