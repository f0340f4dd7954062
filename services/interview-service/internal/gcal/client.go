package gcal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/knakajima/slotpicker/services/interview-service/internal/availability"
	"github.com/knakajima/slotpicker/services/interview-service/internal/tokens"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrReauthRequired means the stored Google credentials are missing or
// revoked and the user must go through the consent flow again.
var ErrReauthRequired = errors.New("gcal: reauthorization required")

// fetchHorizonMonths bounds how far ahead events are pulled. Interview
// scheduling beyond three months is out of range for the form anyway.
const fetchHorizonMonths = 3

type Client struct {
	oauth  *oauth2.Config
	tokens *tokens.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewClient(oauthCfg *oauth2.Config, repo *tokens.Repository, logger *slog.Logger) *Client {
	return &Client{
		oauth:  oauthCfg,
		tokens: repo,
		logger: logger,
		now:    time.Now,
	}
}

// Events fetches the user's events across all calendars in their calendar
// list, from now through the fetch horizon. A failure on one calendar is
// logged and skipped; the rest still contribute. Expired access tokens are
// refreshed through the stored refresh token and the new access token is
// written back.
func (c *Client) Events(ctx context.Context, email string) ([]availability.CalendarEvent, error) {
	rec, err := c.tokens.Get(ctx, email)
	if err != nil {
		if tokens.IsNotFound(err) {
			return nil, ErrReauthRequired
		}
		return nil, err
	}
	if rec.RefreshToken == "" {
		return nil, ErrReauthRequired
	}

	source := c.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		Expiry:       rec.Expiry,
	})
	tok, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// invalid_grant: the refresh token was revoked or expired.
			return nil, ErrReauthRequired
		}
		return nil, err
	}
	if tok.AccessToken != rec.AccessToken {
		if err := c.tokens.UpdateAccess(ctx, email, tok.AccessToken, tok.Expiry); err != nil {
			c.logger.Warn("failed to persist refreshed access token", "err", err)
		}
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(tok)))
	if err != nil {
		return nil, err
	}

	list, err := svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}

	timeMin := c.now().Format(time.RFC3339)
	timeMax := c.now().AddDate(0, fetchHorizonMonths, 0).Format(time.RFC3339)

	var events []availability.CalendarEvent
	for _, cal := range list.Items {
		resp, err := svc.Events.List(cal.Id).
			TimeMin(timeMin).
			TimeMax(timeMax).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			c.logger.Warn("failed to fetch calendar events", "calendar_id", cal.Id, "err", err)
			continue
		}
		for _, it := range resp.Items {
			events = append(events, convertEvent(it))
		}
	}
	return events, nil
}

func convertEvent(it *calendar.Event) availability.CalendarEvent {
	ev := availability.CalendarEvent{
		ID:      it.Id,
		Summary: it.Summary,
	}
	if it.Start != nil {
		ev.Start = availability.EventTime{DateTime: it.Start.DateTime, Date: it.Start.Date}
	}
	if it.End != nil {
		ev.End = availability.EventTime{DateTime: it.End.DateTime, Date: it.End.Date}
	}
	return ev
}

func mapGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == 401 || gerr.Code == 403) {
		return ErrReauthRequired
	}
	return err
}
