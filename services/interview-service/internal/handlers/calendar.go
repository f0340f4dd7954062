package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/knakajima/slotpicker/services/interview-service/internal/availability"
	"github.com/knakajima/slotpicker/services/interview-service/internal/gcal"
)

// CalendarSource yields the user's upcoming events. Implemented by
// gcal.Service; faked in tests.
type CalendarSource interface {
	Events(ctx context.Context, email string, refresh bool) ([]availability.CalendarEvent, error)
}

type CalendarHandler struct {
	source CalendarSource
	logger *slog.Logger
}

func NewCalendarHandler(source CalendarSource, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{source: source, logger: logger}
}

type calendarResponse struct {
	Events []availability.CalendarEvent `json:"events"`
}

func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	refresh := r.URL.Query().Get("refresh") == "1"
	events, err := h.source.Events(r.Context(), principal.Email, refresh)
	if err != nil {
		if errors.Is(err, gcal.ErrReauthRequired) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "reauthorization required"})
			return
		}
		h.logger.Error("calendar fetch failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch calendar"})
		return
	}
	if events == nil {
		events = []availability.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, calendarResponse{Events: events})
}
