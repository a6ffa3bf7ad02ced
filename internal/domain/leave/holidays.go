package leave

import (
	"context"
	"sort"
	"strings"
	"time"
)

func (s *Service) ListHolidays(ctx context.Context, year *int) ([]Holiday, error) {
	holidays, err := s.Store.ListHolidays(ctx, HolidayFilter{Year: year})
	if err != nil {
		return nil, err
	}
	sortByDate(holidays)
	return holidays, nil
}

// CreateHoliday stores a public holiday. year defaults to the date's year.
func (s *Service) CreateHoliday(ctx context.Context, name string, date time.Time, year int) (Holiday, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Holiday{}, invalidRequest("name is required")
	}
	if date.IsZero() {
		return Holiday{}, invalidRequest("date is required")
	}
	date = DateOnly(date)
	if year == 0 {
		year = date.Year()
	}
	h := Holiday{
		ID:        newID(),
		Name:      name,
		Date:      date,
		Year:      year,
		CreatedAt: s.now(),
	}
	if err := s.Store.CreateHoliday(ctx, h); err != nil {
		return Holiday{}, err
	}

	if s.Calendar != nil {
		event := Event{Title: "Public Holiday: " + h.Name, Start: h.Date, End: h.Date}
		s.background("calendar_holiday", func(ctx context.Context) error {
			eventID, err := s.Calendar.CreateEvent(ctx, event)
			if err != nil || eventID == "" {
				return err
			}
			return s.Store.SetHolidayCalendarEvent(ctx, h.ID, eventID)
		})
	}
	return h, nil
}

func (s *Service) DeleteHoliday(ctx context.Context, id string) error {
	h, err := s.Store.GetHoliday(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteHoliday(ctx, id); err != nil {
		return err
	}
	if s.Calendar != nil && h.CalendarEventID != "" {
		eventID := h.CalendarEventID
		s.background("calendar_holiday_delete", func(ctx context.Context) error {
			return s.Calendar.DeleteEvent(ctx, eventID)
		})
	}
	return nil
}

func sortByDate(holidays []Holiday) {
	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
}
