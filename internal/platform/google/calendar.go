package google

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/settings"
)

// Calendar mirrors approved requests and public holidays onto a shared
// Google calendar. It does nothing while calendar sync is disabled or no
// account is connected.
type Calendar struct {
	tokens     *TokenSource
	settings   *settings.Service
	calendarID string
	// Endpoint overrides the API base URL.
	Endpoint string
}

func NewCalendar(tokens *TokenSource, svc *settings.Service, calendarID string) *Calendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Calendar{tokens: tokens, settings: svc, calendarID: calendarID}
}

func (c *Calendar) enabled() bool {
	return c.settings.Current().CalendarSyncEnabled && c.tokens.Connected()
}

func (c *Calendar) service(ctx context.Context) (*calendar.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.tokens.client())}
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}
	return calendar.NewService(ctx, opts...)
}

func (c *Calendar) CreateEvent(ctx context.Context, event leave.Event) (string, error) {
	if !c.enabled() {
		return "", nil
	}
	svc, err := c.service(ctx)
	if err != nil {
		return "", err
	}
	created, err := svc.Events.Insert(c.calendarID, toEvent(event)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}

func (c *Calendar) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" || !c.enabled() {
		return nil
	}
	svc, err := c.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event %s: %w", eventID, err)
	}
	return nil
}

// toEvent builds an all-day event. Google treats the end date as exclusive.
func toEvent(e leave.Event) *calendar.Event {
	end := e.End
	if end.IsZero() || end.Before(e.Start) {
		end = e.Start
	}
	return &calendar.Event{
		Summary:     e.Title,
		Description: e.Description,
		Start:       &calendar.EventDateTime{Date: leave.DateOnly(e.Start).Format(leave.DateLayout)},
		End:         &calendar.EventDateTime{Date: leave.DateOnly(end).AddDate(0, 0, 1).Format(leave.DateLayout)},
	}
}
