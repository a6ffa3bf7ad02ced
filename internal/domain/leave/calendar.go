package leave

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type FeedEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	UserName string `json:"userName,omitempty"`
}

const (
	FeedTypeHoliday       = "holiday"
	FeedTypePublicHoliday = "public_holiday"
)

// CalendarEvents lists approved requests starting in the month followed by
// the public holidays of the month.
func (s *Service) CalendarEvents(ctx context.Context, year, month int) ([]FeedEvent, error) {
	if month < 1 || month > 12 {
		return nil, invalidRequest("month must be between 1 and 12")
	}
	if year < 1 {
		return nil, invalidRequest("year must be positive")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	before := from.AddDate(0, 1, 0)

	reqs, err := s.Store.ListRequests(ctx, RequestFilter{Status: StatusApproved, StartFrom: from, StartBefore: before})
	if err != nil {
		return nil, err
	}
	holidays, err := s.Store.ListHolidays(ctx, HolidayFilter{From: from, Before: before})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].StartDate.Before(reqs[j].StartDate)
	})
	events := make([]FeedEvent, 0, len(reqs)+len(holidays))
	for _, r := range reqs {
		name := CategoryName(r.Category)
		events = append(events, FeedEvent{
			ID:       r.ID,
			Title:    fmt.Sprintf("%s - %s", r.UserName, name),
			Start:    r.StartDate.Format(DateLayout),
			End:      r.EndDate.Format(DateLayout),
			Type:     FeedTypeHoliday,
			Category: r.Category,
			UserName: r.UserName,
		})
	}
	sortByDate(holidays)
	for _, h := range holidays {
		day := h.Date.Format(DateLayout)
		events = append(events, FeedEvent{
			ID:    h.ID,
			Title: h.Name,
			Start: day,
			End:   day,
			Type:  FeedTypePublicHoliday,
		})
	}
	return events, nil
}
